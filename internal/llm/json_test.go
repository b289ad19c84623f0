package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFields struct {
	Workplace string `json:"betrieblicheTaetigkeiten"`
	Hours     string `json:"gesamtstunden"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    reportFields
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"betrieblicheTaetigkeiten":"- Kasse","gesamtstunden":"38"}`,
			want:  reportFields{Workplace: "- Kasse", Hours: "38"},
		},
		{
			name:  "fenced with prose",
			input: "```json\n{\"betrieblicheTaetigkeiten\":\"- Kasse\"}\n```\nViel Erfolg!",
			want:  reportFields{Workplace: "- Kasse"},
		},
		{
			name:  "raw newline inside string",
			input: "{\"betrieblicheTaetigkeiten\":\"- Kasse\n- Regale\",}",
			want:  reportFields{Workplace: "- Kasse\n- Regale"},
		},
		{name: "not json", input: "Leider kann ich das nicht.", wantErr: true},
		{name: "empty", input: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJSON[reportFields](tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON_Array(t *testing.T) {
	got, err := DecodeJSON[[]string]("```json\n[\"MHD-Kontrolle\", \"Kassenschulung\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"MHD-Kontrolle", "Kassenschulung"}, got)
}
