package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.language)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleAddTask)
			r.Post("/suggestions", s.handleSuggestTasks)
			r.Patch("/{id}", s.handleUpdateTask)
			r.Post("/{id}/toggle", s.handleToggleTask)
			r.Delete("/{id}", s.handleDeleteTask)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/period", s.handlePeriod)
			r.With(chimiddleware.Timeout(2*time.Minute)).Post("/generate", s.handleGenerateReport)
			r.Get("/draft", s.handleDraft)
			r.Patch("/draft", s.handleEditReport)
			r.Post("/render", s.handleRenderReport)
			r.Post("/{periodID}/toggle", s.handleToggleReport)
		})

		r.Get("/progress", s.handleProgress)

		r.Route("/files", func(r chi.Router) {
			r.Get("/", s.handleListFiles)
			r.Post("/", s.handleUploadFile)
			r.Get("/{id}/content", s.handleFileContent)
			r.Delete("/{id}", s.handleDeleteFile)
		})

		r.Post("/chat", s.handleChat)
		r.Delete("/chat", s.handleResetChat)
		r.Post("/flashcards", s.handleFlashcards)
		r.Post("/quiz/answer", s.handleQuizAnswer)
		r.Post("/quiz/finish", s.handleQuizFinish)
	})

	return r
}
