package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), EngineConfig{Fs: afero.NewMemMapFs()})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEngine_CheckUpload(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name      string
		input     UploadInput
		wantAllow bool
	}{
		{
			name:      "small document",
			input:     UploadInput{Purpose: PurposeDocument, Name: "a.txt", Type: "text/plain", Size: 10, MaxBytes: MaxInlineBytes},
			wantAllow: true,
		},
		{
			name:  "empty document",
			input: UploadInput{Purpose: PurposeDocument, Name: "leer.txt", Type: "text/plain", Size: 0, MaxBytes: MaxInlineBytes},
		},
		{
			name:  "over inline limit",
			input: UploadInput{Purpose: PurposeDocument, Name: "scan.pdf", Type: "application/pdf", Size: MaxInlineBytes + 1, MaxBytes: MaxInlineBytes},
		},
		{
			name:      "large document with object storage",
			input:     UploadInput{Purpose: PurposeDocument, Name: "scan.pdf", Type: "application/pdf", Size: MaxInlineBytes + 1, MaxBytes: MaxObjectBytes},
			wantAllow: true,
		},
		{
			name:  "template must be pdf",
			input: UploadInput{Purpose: PurposeTemplate, Name: "vorlage.docx", Type: "application/zip", Size: 100, MaxBytes: MaxObjectBytes},
		},
		{
			name:      "pdf template",
			input:     UploadInput{Purpose: PurposeTemplate, Name: "vorlage.pdf", Type: "application/pdf", Size: 100, MaxBytes: MaxObjectBytes},
			wantAllow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.CheckUpload(context.Background(), tt.input)
			if tt.wantAllow {
				if err != nil {
					t.Fatalf("CheckUpload() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrDenied) {
				t.Fatalf("CheckUpload() error = %v, want ErrDenied", err)
			}
			var denied *DeniedError
			if !errors.As(err, &denied) || len(denied.Violations) == 0 {
				t.Fatalf("expected violations, got %v", err)
			}
		})
	}
}

func TestEngine_ViolationMessage(t *testing.T) {
	e := newTestEngine(t)

	d, err := e.Evaluate(context.Background(), UploadInput{
		Purpose: PurposeDocument, Name: "scan.pdf", Size: 600, MaxBytes: 500,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if d.Allowed {
		t.Fatal("expected deny")
	}
	want := "scan.pdf is 600 bytes, the limit is 500 bytes"
	if len(d.Violations) != 1 || d.Violations[0] != want {
		t.Errorf("Violations = %v, want [%q]", d.Violations, want)
	}
}

func TestEngine_ExtraPoliciesFromDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	rule := `package azubihub.uploads

import rego.v1

deny contains msg if {
	endswith(input.name, ".exe")
	msg := "executables are not accepted"
}
`
	if err := afero.WriteFile(fs, "/data/policies/no_exe.rego", []byte(rule), 0o644); err != nil {
		t.Fatal(err)
	}
	_ = afero.WriteFile(fs, "/data/policies/README.md", []byte("ignored"), 0o644)

	e, err := NewEngine(context.Background(), EngineConfig{Fs: fs, PoliciesDir: GetPoliciesPath("/data")})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if got := e.PolicyNames(); len(got) != 2 || got[1] != "no_exe" {
		t.Errorf("PolicyNames() = %v", got)
	}

	err = e.CheckUpload(context.Background(), UploadInput{Purpose: PurposeDocument, Name: "tool.exe", Size: 1, MaxBytes: 10})
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("CheckUpload() error = %v, want ErrDenied", err)
	}
}

func TestNewEngine_InvalidPolicy(t *testing.T) {
	_, err := NewEngineWithPolicies(context.Background(), []*PolicyFile{{Path: "bad.rego", Content: "package x\n deny contains"}})
	if err == nil {
		t.Fatal("expected compile error")
	}
	if err := ValidatePolicy(context.Background(), builtinPolicy); err != nil {
		t.Errorf("builtin policy invalid: %v", err)
	}
}

func TestMaxUploadBytes(t *testing.T) {
	if MaxUploadBytes(true) != MaxObjectBytes || MaxUploadBytes(false) != MaxInlineBytes {
		t.Error("unexpected limits")
	}
}
