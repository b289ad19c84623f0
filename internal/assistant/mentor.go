// Package assistant is the AI mentor: a streaming chat that knows the
// apprentice's tasks and files, to-do suggestions and flashcard quizzes.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/task"
)

// ErrMentorFailed wraps model failures other than missing credentials.
var ErrMentorFailed = errors.New("mentor request failed")

// Mentor creates chats and one-shot generations against the configured
// model.
type Mentor struct {
	source llm.ConfigSource
	logger *slog.Logger

	// chatModelFactory allows tests to inject a fake model
	chatModelFactory llm.ChatModelFactory
}

// NewMentor creates a mentor resolving its model config from source.
func NewMentor(source llm.ConfigSource, logger *slog.Logger) *Mentor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mentor{source: source, logger: logger, chatModelFactory: llm.NewChatModel}
}

// WithChatModelFactory replaces the model constructor.
func (m *Mentor) WithChatModelFactory(f llm.ChatModelFactory) *Mentor {
	m.chatModelFactory = f
	return m
}

func (m *Mentor) newModel(ctx context.Context) (model.BaseChatModel, error) {
	cm, err := m.chatModelFactory(ctx, m.source())
	if err != nil {
		if errors.Is(err, llm.ErrMissingCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create model: %w", ErrMentorFailed, err)
	}
	return cm, nil
}

// FileRef is a stored document as the mentor sees it.
type FileRef struct {
	Name string
	Type string
}

// UserContext is what the mentor is told about the apprentice.
type UserContext struct {
	Name  string
	Tasks []task.Task
	Files []FileRef
}

type userPromptData struct {
	Name  string
	Tasks string
	Files string
}

func (u *UserContext) promptData(lang i18n.Lang) *userPromptData {
	if u == nil {
		return nil
	}

	var tasks strings.Builder
	for _, t := range u.Tasks {
		status := lang.T(i18n.StatusOpen)
		if t.Completed {
			status = lang.T(i18n.StatusDone)
		}
		fmt.Fprintf(&tasks, "- %s (%s, %s)\n", t.Text, status, t.Category)
	}
	var files strings.Builder
	for _, f := range u.Files {
		fmt.Fprintf(&files, "- %s (%s)\n", f.Name, f.Type)
	}

	d := &userPromptData{
		Name:  u.Name,
		Tasks: strings.TrimRight(tasks.String(), "\n"),
		Files: strings.TrimRight(files.String(), "\n"),
	}
	if d.Tasks == "" {
		d.Tasks = lang.T(i18n.NoTasksListed)
	}
	if d.Files == "" {
		d.Files = lang.T(i18n.NoFilesStored)
	}
	return d
}
