package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/josephgoksu/azubihub/internal/assistant"
	"github.com/josephgoksu/azubihub/internal/i18n"
)

type chatRequest struct {
	Message string `json:"message"`
	Lang    string `json:"lang"` // Overrides Accept-Language
}

type chatChunk struct {
	Text string `json:"text"`
}

type chatDone struct {
	Text    string `json:"text"`
	Stopped bool   `json:"stopped"`
}

// handleChat streams the mentor's answer as server-sent events: one
// "message" event per chunk, then "done" or "error". Closing the
// connection stops the answer.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	lang := langFrom(r.Context())
	if req.Lang != "" {
		lang = i18n.Parse(req.Lang)
	}

	chat, err := sess.Chat(lang)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	var (
		mu      sync.Mutex
		started bool
	)
	start := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}
	send := func(event string, v any) {
		mu.Lock()
		defer mu.Unlock()
		start()
		data, _ := json.Marshal(v)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		_ = rc.Flush()
	}

	reply, err := chat.Send(r.Context(), req.Message, func(chunk string) {
		send("message", chatChunk{Text: chunk})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	text, err := reply.Wait()
	if err != nil {
		status, body := classify(err, lang)
		requestLogger(r).Warn("chat stream failed", "status", status, "error", err)
		send("error", body)
		return
	}
	send("done", chatDone{Text: text, Stopped: reply.Stopped()})
}

func (s *Server) handleResetChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ResetChat()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Topic string `json:"topic"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cards, state, err := sess.StartQuiz(r.Context(), req.Topic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Cards []assistant.Flashcard `json:"cards"`
		Quiz  assistant.QuizState   `json:"quiz"`
	}{cards, state})
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Correct bool `json:"correct"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	state, err := sess.AnswerQuiz(r.Context(), req.Correct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleQuizFinish(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	state, err := sess.FinishQuiz(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
