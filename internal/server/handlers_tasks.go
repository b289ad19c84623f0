package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/progress"
	"github.com/josephgoksu/azubihub/internal/task"
	"github.com/josephgoksu/azubihub/internal/validation"
)

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Code: "unauthorized", Error: "no identity"})
		return nil, false
	}
	sess, err := s.app.Session(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      s.cfg.Version,
		"localMode":    s.LocalMode(),
		"capabilities": s.app.Capabilities(),
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	tasks := sess.Tasks().List()
	if c := r.URL.Query().Get("category"); c != "" {
		category, err := task.ParseCategory(c)
		if err != nil {
			writeError(w, r, validation.Field("category", err.Error()))
			return
		}
		tasks = sess.Tasks().Filter(category)
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var d task.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := sess.Tasks().Add(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var p task.Patch
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := sess.Tasks().Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	t, err := sess.Tasks().Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Task     task.Task         `json:"task"`
		Progress progress.Snapshot `json:"progress"`
	}{t, sess.Progress()})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Tasks().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuggestTasks(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Context string `json:"context"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	added, err := sess.SuggestTasks(r.Context(), req.Context)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Progress())
}
