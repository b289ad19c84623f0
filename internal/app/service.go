// Package app is the application layer between the surfaces (HTTP, CLI,
// MCP) and the domain packages. Surfaces stay thin: every operation an
// apprentice can trigger is a method on Session.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/josephgoksu/azubihub/internal/assistant"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/pdf"
	"github.com/josephgoksu/azubihub/internal/policy"
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/storage"
	"github.com/josephgoksu/azubihub/internal/telemetry"
)

// Deps are the shared collaborators of all sessions.
type Deps struct {
	Backend   storage.Backend
	LLM       llm.ConfigSource
	Policy    *policy.Engine
	Telemetry telemetry.Client
	Logger    *slog.Logger
	Lang      i18n.Lang

	// ChatModelFactory replaces the model constructor in tests.
	ChatModelFactory llm.ChatModelFactory
	// Now replaces the clock in tests.
	Now func() time.Time
}

// Service owns the shared components and the open sessions.
type Service struct {
	deps      Deps
	assembler *report.Assembler
	renderer  *pdf.Renderer
	mentor    *assistant.Mentor

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService wires the shared components.
func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.NoopClient{}
	}
	if deps.Lang == "" {
		deps.Lang = i18n.Default
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	assembler := report.NewAssembler(deps.LLM, deps.Logger)
	mentor := assistant.NewMentor(deps.LLM, deps.Logger)
	if deps.ChatModelFactory != nil {
		assembler.WithChatModelFactory(deps.ChatModelFactory)
		mentor.WithChatModelFactory(deps.ChatModelFactory)
	}

	return &Service{
		deps:      deps,
		assembler: assembler,
		renderer:  pdf.NewRenderer(deps.Logger),
		mentor:    mentor,
		sessions:  map[string]*Session{},
	}
}

// Capabilities of the selected storage backend.
func (s *Service) Capabilities() storage.Capabilities {
	return s.deps.Backend.Capabilities()
}

// Session returns the open session for id, loading it on first use.
func (s *Service) Session(ctx context.Context, id storage.Identity) (*Session, error) {
	id = id.Normalize()
	if id.UserID == "" {
		return nil, fmt.Errorf("identity without user id or email")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id.UserID]; ok {
		return sess, nil
	}

	sess, err := s.open(ctx, id)
	if err != nil {
		return nil, err
	}
	s.sessions[id.UserID] = sess
	return sess, nil
}

// Close releases the storage backend and flushes telemetry.
func (s *Service) Close() error {
	_ = s.deps.Telemetry.Close()
	return s.deps.Backend.Close()
}
