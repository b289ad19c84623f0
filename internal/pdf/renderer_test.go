package pdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/azubihub/internal/report"
)

// blankTemplate produces a one-page PDF of the given size in points.
func blankTemplate(t *testing.T, w, h float64) []byte {
	t.Helper()
	doc := fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "pt", Size: fpdf.SizeType{Wd: w, Ht: h}})
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 14)
	doc.Text(60, 60, "Ausbildungsnachweis")

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func sampleContent() report.Content {
	return report.Content{
		Workplace:   "• Regale eingeräumt\n• MHD-Kontrolle durchgeführt\n\n• Kasse abgerechnet",
		Instruction: "Warenannahme: Lieferschein prüfen, Kühlkette kontrollieren – “sauber” dokumentieren.",
		School:      "• Mathe: Dreisatz",
		TotalHours:  "40",
	}
}

func TestRender_FillsTemplate(t *testing.T) {
	var pageHeight float64
	r := NewRenderer(nil)
	r.layout = func(h float64) Layout {
		pageHeight = h
		return FormLayout(h)
	}

	doc, err := r.Render(blankTemplate(t, 595.28, 841.89), sampleContent(), 11)
	require.NoError(t, err)

	assert.Equal(t, "Berichtsheft_KW11.pdf", doc.Name)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	assert.InDelta(t, 841.89, pageHeight, 0.01)
}

func TestRender_UsesTemplatePageHeight(t *testing.T) {
	var pageHeight float64
	r := NewRenderer(nil)
	r.layout = func(h float64) Layout {
		pageHeight = h
		return FormLayout(h)
	}

	_, err := r.Render(blankTemplate(t, 612, 792), sampleContent(), 2)
	require.NoError(t, err)
	assert.InDelta(t, 792, pageHeight, 0.01)
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer(nil)

	_, err := r.Render(nil, sampleContent(), 11)
	assert.ErrorIs(t, err, ErrTemplateMissing)

	_, err = r.Render([]byte("PK\x03\x04 not a pdf"), sampleContent(), 11)
	assert.ErrorIs(t, err, ErrTemplateUnreadable)

	_, err = r.Render(blankTemplate(t, 595.28, 841.89), report.Content{TotalHours: "40"}, 11)
	assert.ErrorIs(t, err, ErrEmptyReport)
}

func TestRender_MissingTemplateWinsOverEmptyReport(t *testing.T) {
	_, err := NewRenderer(nil).Render(nil, report.Content{}, 1)
	assert.True(t, errors.Is(err, ErrTemplateMissing))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Berichtsheft_KW1.pdf", FileName(1))
	assert.Equal(t, "Berichtsheft_KW53.pdf", FileName(53))
}
