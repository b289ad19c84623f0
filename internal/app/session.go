package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/josephgoksu/azubihub/internal/assistant"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/progress"
	"github.com/josephgoksu/azubihub/internal/report"
	"github.com/josephgoksu/azubihub/internal/storage"
	"github.com/josephgoksu/azubihub/internal/task"
	"github.com/josephgoksu/azubihub/internal/telemetry"
)

// ErrNoQuiz is returned when answering without a started quiz.
var ErrNoQuiz = errors.New("no quiz in progress")

// Session is one apprentice's working state: tasks, progress, files, the
// report draft and the mentor conversation.
type Session struct {
	svc     *Service
	binding *storage.Session
	logger  *slog.Logger

	tasks  *task.Store
	ledger *progress.Ledger
	draft  *report.Draft

	mu    sync.Mutex
	files []storage.StoredFile
	chats map[i18n.Lang]*assistant.Chat
	quiz  *assistant.Quiz
}

func (s *Service) open(ctx context.Context, id storage.Identity) (*Session, error) {
	binding := storage.Bind(s.deps.Backend, id, storage.WithClock(s.deps.Now))
	data, err := binding.Load(ctx)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		svc:     s,
		binding: binding,
		logger:  s.deps.Logger.With("user_id", id.UserID),
		draft:   report.NewDraft(),
		files:   data.Files,
		chats:   map[i18n.Lang]*assistant.Chat{},
	}
	sess.ledger = progress.NewLedger(data.XP, data.CompletedReports, binding)
	sess.tasks = task.NewStore(data.Tasks, binding,
		task.WithCompletionHook(sess.onTaskCompleted),
		task.WithClock(s.deps.Now),
	)

	sess.logger.Debug("session opened",
		"backend", s.deps.Backend.Name(),
		"tasks", len(data.Tasks),
		"files", len(data.Files),
		"xp", data.XP,
	)
	s.deps.Telemetry.Track(telemetry.EventSessionStart, telemetry.Properties{
		"backend": s.deps.Backend.Name(),
	})
	return sess, nil
}

func (s *Session) onTaskCompleted(ctx context.Context, t task.Task) {
	if _, err := s.ledger.Award(ctx, progress.AwardTaskCompleted); err != nil {
		s.logger.Warn("could not save progress", "error", err)
	}
	s.svc.deps.Telemetry.Track(telemetry.EventTaskCompleted, telemetry.Properties{"category": string(t.Category)})
}

// Identity of the session owner.
func (s *Session) Identity() storage.Identity { return s.binding.Identity() }

// Tasks is the session's task store.
func (s *Session) Tasks() *task.Store { return s.tasks }

// Progress returns the current xp, level and completed reports.
func (s *Session) Progress() progress.Snapshot { return s.ledger.Snapshot() }

// Ledger is the session's experience ledger.
func (s *Session) Ledger() *progress.Ledger { return s.ledger }

// SuggestTasks asks the mentor for to-do items and adds them as workplace
// tasks.
func (s *Session) SuggestTasks(ctx context.Context, contextText string) ([]task.Task, error) {
	texts, err := s.svc.mentor.SuggestTasks(ctx, contextText)
	if err != nil {
		return nil, err
	}
	drafts := make([]task.Draft, 0, len(texts))
	for _, text := range texts {
		drafts = append(drafts, task.Draft{Text: text, Category: task.CategoryWorkplace})
	}
	return s.tasks.AddMany(ctx, drafts)
}

// GenerateReport fills the session draft for the week of req.Anchor.
func (s *Session) GenerateReport(ctx context.Context, req report.Request) (report.Result, error) {
	if req.Lang == "" {
		req.Lang = s.svc.deps.Lang
	}
	start := time.Now()
	res, err := s.svc.assembler.Run(ctx, s.draft, s.tasks.List(), req)
	if err != nil {
		s.svc.deps.Telemetry.Track(telemetry.EventReportFailed, telemetry.Properties{
			"reason": string(s.draft.View().Reason),
		})
		return res, err
	}
	s.svc.deps.Telemetry.Track(telemetry.EventReportGenerated, telemetry.Properties{
		"task_count":  res.TaskCount,
		"fallback":    res.Fallback,
		"style":       string(req.Style),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return res, nil
}

// Draft returns the state of the session's report draft.
func (s *Session) Draft() report.DraftView { return s.draft.View() }

// EditReport changes fields of a generated report without a model call.
func (s *Session) EditReport(e report.Edit) (report.Content, error) { return s.draft.Edit(e) }

// ToggleReport marks the report of periodID done or not done.
func (s *Session) ToggleReport(ctx context.Context, periodID string) (bool, progress.Snapshot, error) {
	done, snap, err := s.ledger.ToggleReport(ctx, periodID)
	if done {
		s.svc.deps.Telemetry.Track(telemetry.EventReportMarkedDone, nil)
	}
	return done, snap, err
}

// Chat returns the session's conversation in lang, starting it with the
// apprentice's current tasks and files as context.
func (s *Session) Chat(lang i18n.Lang) (*assistant.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chats[lang]; ok {
		return c, nil
	}

	refs := make([]assistant.FileRef, 0, len(s.files))
	for _, f := range s.files {
		refs = append(refs, assistant.FileRef{Name: f.Name, Type: f.Type})
	}
	c, err := s.svc.mentor.StartChat(lang, &assistant.UserContext{
		Name:  s.binding.Identity().Name,
		Tasks: s.tasks.List(),
		Files: refs,
	})
	if err != nil {
		return nil, err
	}
	s.chats[lang] = c
	s.svc.deps.Telemetry.Track(telemetry.EventChatStarted, telemetry.Properties{"lang": string(lang)})
	return c, nil
}

// ResetChat forgets the conversations so the next chat sees fresh context.
func (s *Session) ResetChat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = map[i18n.Lang]*assistant.Chat{}
}

// StartQuiz generates flashcards for topic and starts a quiz over them.
func (s *Session) StartQuiz(ctx context.Context, topic string) ([]assistant.Flashcard, assistant.QuizState, error) {
	cards, err := s.svc.mentor.Flashcards(ctx, topic)
	if err != nil {
		return nil, assistant.QuizState{}, err
	}
	q := assistant.NewQuiz(cards, s.ledger)

	s.mu.Lock()
	s.quiz = q
	s.mu.Unlock()
	return cards, q.State(), nil
}

// AnswerQuiz records an answer to the current card.
func (s *Session) AnswerQuiz(ctx context.Context, correct bool) (assistant.QuizState, error) {
	q, err := s.currentQuiz()
	if err != nil {
		return assistant.QuizState{}, err
	}
	st, err := q.Answer(ctx, correct)
	if st.Finished && err == nil {
		s.trackQuizFinished(st)
	}
	return st, err
}

// FinishQuiz ends the quiz early.
func (s *Session) FinishQuiz(ctx context.Context) (assistant.QuizState, error) {
	q, err := s.currentQuiz()
	if err != nil {
		return assistant.QuizState{}, err
	}
	st, err := q.Finish(ctx)
	if err == nil {
		s.trackQuizFinished(st)
	}
	return st, err
}

func (s *Session) currentQuiz() (*assistant.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quiz == nil {
		return nil, ErrNoQuiz
	}
	return s.quiz, nil
}

func (s *Session) trackQuizFinished(st assistant.QuizState) {
	s.svc.deps.Telemetry.Track(telemetry.EventQuizFinished, telemetry.Properties{
		"cards": st.Total,
		"score": st.Score,
	})
}
