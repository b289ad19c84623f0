package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/assistant"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/pdf"
	"github.com/josephgoksu/azubihub/internal/policy"
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/task"
	"github.com/josephgoksu/azubihub/internal/validation"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code       string            `json:"code"`
	Error      string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
	Violations []string          `json:"violations,omitempty"`
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err, langFrom(r.Context()))
	if status >= 500 {
		requestLogger(r).Error("request failed", "error", err)
	}
	writeJSON(w, status, body)
}

func classify(err error, lang i18n.Lang) (int, errorBody) {
	var (
		verr   *validation.Error
		denied *policy.DeniedError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Code: "validation", Error: err.Error(), Fields: verr.Fields}
	case errors.Is(err, llm.ErrMissingCredentials):
		return http.StatusPreconditionFailed, errorBody{Code: "missing_credentials", Error: lang.T(i18n.MissingKey)}
	case errors.Is(err, report.ErrGenerationFailed), errors.Is(err, assistant.ErrMentorFailed):
		return http.StatusBadGateway, errorBody{Code: "generation_failed", Error: err.Error()}
	case errors.Is(err, pdf.ErrTemplateUnreadable):
		body := errorBody{Code: "template_unreadable", Error: err.Error()}
		if errors.As(err, &denied) {
			body.Violations = denied.Violations
		}
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &denied):
		return http.StatusUnprocessableEntity, errorBody{Code: "upload_rejected", Error: err.Error(), Violations: denied.Violations}
	case errors.Is(err, pdf.ErrTemplateMissing):
		return http.StatusBadRequest, errorBody{Code: "template_missing", Error: err.Error()}
	case errors.Is(err, report.ErrNoTasksInPeriod):
		return http.StatusUnprocessableEntity, errorBody{Code: "no_tasks", Error: err.Error()}
	case errors.Is(err, pdf.ErrEmptyReport), errors.Is(err, report.ErrNotReady):
		return http.StatusConflict, errorBody{Code: "report_not_ready", Error: err.Error()}
	case errors.Is(err, report.ErrBusy), errors.Is(err, assistant.ErrReplyActive):
		return http.StatusConflict, errorBody{Code: "busy", Error: err.Error()}
	case errors.Is(err, app.ErrNoQuiz), errors.Is(err, assistant.ErrQuizFinished):
		return http.StatusConflict, errorBody{Code: "no_quiz", Error: err.Error()}
	case errors.Is(err, task.ErrNotFound), errors.Is(err, app.ErrFileNotFound):
		return http.StatusNotFound, errorBody{Code: "not_found", Error: err.Error()}
	case errors.Is(err, pdf.ErrRenderFailed):
		return http.StatusInternalServerError, errorBody{Code: "render_failed", Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Code: "internal", Error: "internal error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return validation.Field("body", "must be valid JSON")
	}
	return nil
}
