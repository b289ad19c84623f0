package server

import (
	"mime"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/storage"
	"github.com/josephgoksu/azubihub/internal/validation"
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	files, err := sess.Files(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, validation.Field("file", "must be sent as multipart/form-data"))
		return
	}
	up, err := formFile(r, "file")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if up.Name == "" {
		writeError(w, r, validation.Field("file", "must not be empty"))
		return
	}

	view, err := sess.UploadFile(r.Context(), up)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleFileContent serves inline bytes or redirects to the signed object
// URL.
func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	files, err := sess.Files(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	i := slices.IndexFunc(files, func(f storage.FileView) bool { return f.ID == id })
	if i < 0 {
		writeError(w, r, app.ErrFileNotFound)
		return
	}

	f := files[i]
	switch {
	case f.URL != "":
		http.Redirect(w, r, f.URL, http.StatusFound)
	case len(f.Content) > 0:
		w.Header().Set("Content-Type", f.Type)
		w.Header().Set("Content-Disposition", contentDisposition("inline", f.Name))
		w.Header().Set("Content-Length", strconv.Itoa(len(f.Content)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(f.Content)
	default:
		writeJSON(w, http.StatusGone, errorBody{Code: "not_persisted", Error: "file content was not stored"})
	}
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.DeleteFile(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// contentDisposition quotes name per RFC 2183, switching to the RFC 2231
// extended form for non-ASCII names.
func contentDisposition(disposition, name string) string {
	return mime.FormatMediaType(disposition, map[string]string{"filename": name})
}
