package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"

	"github.com/josephgoksu/azubihub/internal/report"
)

var (
	// ErrTemplateMissing is returned when no template was supplied.
	ErrTemplateMissing = errors.New("no report template provided")

	// ErrTemplateUnreadable is returned when the template is not a PDF that
	// can be imported.
	ErrTemplateUnreadable = errors.New("report template is not a readable PDF")

	// ErrEmptyReport is returned when there is no report text to fill in.
	ErrEmptyReport = errors.New("report has no content yet")

	// ErrRenderFailed wraps font and serialization failures.
	ErrRenderFailed = errors.New("could not render report")
)

const fontFamily = "Helvetica"

// Document is a rendered report ready for download.
type Document struct {
	Name string
	Data []byte
}

// FileName returns the download name for calendar week w.
func FileName(week int) string {
	return fmt.Sprintf("Berichtsheft_KW%d.pdf", week)
}

// Renderer fills the first page of a template with report content.
type Renderer struct {
	layout func(pageHeight float64) Layout
	logger *slog.Logger
}

// NewRenderer creates a renderer using the standard form layout.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{layout: FormLayout, logger: logger}
}

// Render draws c onto the first page of template. Header fields of the form
// (name, dates, report number) are left as they are in the template.
func (r *Renderer) Render(template []byte, c report.Content, week int) (*Document, error) {
	if len(template) == 0 {
		return nil, ErrTemplateMissing
	}
	if c.IsEmpty() {
		return nil, ErrEmptyReport
	}
	if !bytes.HasPrefix(bytes.TrimLeft(template, "\x00\t\n\r "), []byte("%PDF-")) {
		return nil, ErrTemplateUnreadable
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		SizeStr:        "A4",
	})
	doc.SetCompression(true)

	importer := gofpdi.NewImporter()
	tpl, w, h, err := importFirstPage(doc, importer, template)
	if err != nil {
		return nil, err
	}

	data, err := r.draw(doc, importer, tpl, w, h, c)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("report rendered", "week", week, "bytes", len(data), "page_height", h)
	return &Document{Name: FileName(week), Data: data}, nil
}

// importFirstPage loads page 1 of the template. The importer panics on
// malformed input, which is reported as an unreadable template.
func importFirstPage(doc *fpdf.Fpdf, importer *gofpdi.Importer, template []byte) (tpl int, w, h float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrTemplateUnreadable, rec)
		}
	}()

	rs := io.ReadSeeker(bytes.NewReader(template))
	tpl = importer.ImportPageFromStream(doc, &rs, 1, "/MediaBox")

	box, ok := importer.GetPageSizes()[1]["/MediaBox"]
	if !ok || box["w"] <= 0 || box["h"] <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: first page has no media box", ErrTemplateUnreadable)
	}
	return tpl, box["w"], box["h"], nil
}

func (r *Renderer) draw(doc *fpdf.Fpdf, importer *gofpdi.Importer, tpl int, w, h float64, c report.Content) (data []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrRenderFailed, rec)
		}
	}()

	layout := r.layout(h)

	doc.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	importer.UseImportedTemplate(doc, tpl, 0, 0, w, h)

	doc.SetFont(fontFamily, "", layout.FontSize)
	doc.SetTextColor(0, 0, 0)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	m := fontMeasurer{doc: doc, tr: tr}

	fields := []struct {
		text   string
		region Region
	}{
		{c.Workplace, layout.Workplace},
		{c.Instruction, layout.Instruction},
		{c.School, layout.School},
	}
	for _, f := range fields {
		for _, ln := range Wrap(f.text, f.region, layout, m) {
			// fpdf measures y from the top edge.
			doc.Text(ln.X, h-ln.Y, tr(ln.Text))
		}
	}

	if hours := Sanitize(c.TotalHours); hours != "" {
		doc.SetFontSize(layout.HoursFontSize)
		doc.Text(layout.Hours.X, h-layout.Hours.Y, tr(hours))
	}

	if doc.Err() {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, doc.Error())
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

// fontMeasurer measures with the document's current font.
type fontMeasurer struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

func (m fontMeasurer) Width(s string) float64 {
	return m.doc.GetStringWidth(m.tr(s))
}
