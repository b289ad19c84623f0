package util

import (
	"errors"
	"strings"
	"testing"
)

func TestShortID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		n    int
		want string
	}{
		{name: "default length truncates", id: "3f2a9c1e-7b4d", n: 0, want: "3f2a9c"},
		{name: "negative uses default", id: "3f2a9c1e-7b4d", n: -1, want: "3f2a9c"},
		{name: "explicit length", id: "3f2a9c1e-7b4d", n: 8, want: "3f2a9c1e"},
		{name: "shorter than length", id: "abc", n: 6, want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortID(tt.id, tt.n); got != tt.want {
				t.Errorf("ShortID(%q, %d) = %q, want %q", tt.id, tt.n, got, tt.want)
			}
		})
	}
}

func TestResolveID(t *testing.T) {
	ids := []string{"3f2a9c1e", "3f2b0000", "a1b2c3d4", "a1"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "exact match", input: "a1b2c3d4", want: "a1b2c3d4"},
		{name: "exact match beats prefix", input: "a1", want: "a1"},
		{name: "unique prefix", input: "3f2a", want: "3f2a9c1e"},
		{name: "ambiguous prefix", input: "3f2", wantErr: ErrAmbiguousID},
		{name: "no match", input: "ffff", wantErr: ErrNotFound},
		{name: "empty", input: "  ", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveID(tt.input, ids, "task")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveID_AmbiguousListsCandidates(t *testing.T) {
	ids := []string{"aa1", "aa2", "aa3", "aa4", "aa5", "aa6", "aa7"}
	_, err := ResolveID("aa", ids, "file")
	if err == nil || !strings.Contains(err.Error(), "matches 7 files") {
		t.Fatalf("unexpected error %v", err)
	}
	if strings.Contains(err.Error(), "aa6") {
		t.Errorf("expected at most %d candidates in %q", MaxAmbiguousCandidates, err.Error())
	}
}
