package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/pdf"
	"github.com/josephgoksu/azubihub/internal/policy"
	"github.com/josephgoksu/azubihub/internal/progress"
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/validation"
)

// maxMultipartBytes bounds upload bodies; the policy decides the real limit.
const maxMultipartBytes = policy.MaxObjectBytes + 1<<20

type periodResponse struct {
	Period    report.Period `json:"period"`
	DateRange string        `json:"dateRange"`
	FileName  string        `json:"fileName"`
	Done      bool          `json:"done"`
}

type generateRequest struct {
	Date   string `json:"date"` // YYYY-MM-DD, today when empty
	Style  string `json:"style"`
	Number string `json:"number"`
}

func (s *Server) anchor(date string) (time.Time, error) {
	if date == "" {
		return s.now(), nil
	}
	d, err := report.ParseDate(date, time.Local)
	if err != nil {
		return time.Time{}, validation.Field("date", "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	at, err := s.anchor(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := report.PeriodFor(at)
	writeJSON(w, http.StatusOK, periodResponse{
		Period:    p,
		DateRange: p.DateRange(),
		FileName:  pdf.FileName(p.Week),
		Done:      sess.Ledger().IsReportDone(p.ID),
	})
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	at, err := s.anchor(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	style, err := report.ParseStyle(req.Style)
	if err != nil {
		writeError(w, r, validation.Field("style", "must be one of Formal, Concise, Detailed"))
		return
	}

	res, err := sess.GenerateReport(r.Context(), report.Request{
		Anchor: at,
		Style:  style,
		Number: req.Number,
		Lang:   langFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Draft())
}

func (s *Server) handleEditReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var e report.Edit
	if err := decodeJSON(r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := sess.EditReport(e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleRenderReport takes a multipart form with the template PDF in
// "template", optional report JSON in "report" (the draft otherwise) and
// the report date in "date".
func (s *Server) handleRenderReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, validation.Field("template", "must be sent as multipart/form-data"))
		return
	}

	template, err := formFile(r, "template")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var content *report.Content
	if raw := r.FormValue("report"); raw != "" {
		content = new(report.Content)
		if err := json.Unmarshal([]byte(raw), content); err != nil {
			writeError(w, r, validation.Field("report", "must be valid JSON"))
			return
		}
	}

	week, err := s.renderWeek(sess, r.FormValue("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := sess.RenderReport(r.Context(), template, content, week)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition("attachment", doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

// renderWeek uses the explicit date, then the draft's week, then today.
func (s *Server) renderWeek(sess *app.Session, date string) (int, error) {
	if date == "" {
		if v := sess.Draft(); v.Period != nil {
			return v.Period.Week, nil
		}
	}
	at, err := s.anchor(date)
	if err != nil {
		return 0, err
	}
	return report.PeriodFor(at).Week, nil
}

func (s *Server) handleToggleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	done, snap, err := sess.ToggleReport(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Done     bool              `json:"done"`
		Progress progress.Snapshot `json:"progress"`
	}{done, snap})
}

// formFile reads an uploaded part. A missing template part is reported as
// an empty upload so the render path can answer with ErrTemplateMissing.
func formFile(r *http.Request, field string) (app.Upload, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return app.Upload{}, nil
	}
	if err != nil {
		return app.Upload{}, validation.Field(field, "could not be read")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return app.Upload{}, validation.Field(field, "could not be read")
	}
	return app.Upload{
		Name: hdr.Filename,
		Type: hdr.Header.Get("Content-Type"),
		Data: data,
	}, nil
}
