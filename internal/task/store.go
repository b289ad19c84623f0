package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josephgoksu/azubihub/internal/validation"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// ValidationError is the field-level rejection returned for bad task input.
type ValidationError = validation.Error

// Saver persists the task list. Implementations are bound to one user.
type Saver interface {
	SaveTasks(ctx context.Context, tasks []Task) error
	DeleteTask(ctx context.Context, id string) error
}

// Store is the ordered, in-memory task collection of one session.
// Mutations are applied in memory first and then handed to the Saver.
// Creation is the exception: a new task only appears once it was saved.
type Store struct {
	mu    sync.Mutex
	tasks []Task
	saver Saver
	// saveMu orders writes to the saver. Each save snapshots the list after
	// taking it, so the last write carries the newest state.
	saveMu sync.Mutex

	onComplete func(ctx context.Context, t Task)
	now        func() time.Time
	newID      func() string
}

// Option configures a Store.
type Option func(*Store)

// WithCompletionHook registers fn to run whenever a task transitions from
// open to completed. It runs after the mutation, outside the store lock.
// Reopening a task does not call it.
func WithCompletionHook(fn func(ctx context.Context, t Task)) Option {
	return func(s *Store) { s.onComplete = fn }
}

// WithClock overrides the time source used for CompletedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store seeded with initial, newest first.
func NewStore(initial []Task, saver Saver, opts ...Option) *Store {
	s := &Store{
		tasks: append([]Task(nil), initial...),
		saver: saver,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a copy of all tasks in display order.
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Filter returns the tasks of one category, or all tasks when c is empty.
func (s *Store) Filter(c Category) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if c == "" || t.Category == c {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneTask(s.tasks[i]), nil
}

// Add validates d and prepends a new open task. The task is kept only when
// the save succeeds.
func (s *Store) Add(ctx context.Context, d Draft) (Task, error) {
	t := Task{
		ID:       s.newID(),
		Text:     strings.TrimSpace(d.Text),
		Category: d.Category,
		DueDate:  strings.TrimSpace(d.DueDate),
	}
	if err := validation.Struct(t); err != nil {
		return Task{}, err
	}
	return s.insert(ctx, []Task{t})
}

// AddMany prepends several open tasks in one save, keeping their order.
func (s *Store) AddMany(ctx context.Context, drafts []Draft) ([]Task, error) {
	items := make([]Task, 0, len(drafts))
	for _, d := range drafts {
		t := Task{
			ID:       s.newID(),
			Text:     strings.TrimSpace(d.Text),
			Category: d.Category,
			DueDate:  strings.TrimSpace(d.DueDate),
		}
		if err := validation.Struct(t); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if len(items) == 0 {
		return nil, nil
	}
	if _, err := s.insert(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) insert(ctx context.Context, items []Task) (Task, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	next := make([]Task, 0, len(items)+len(s.tasks))
	next = append(next, items...)
	next = append(next, s.tasks...)
	snapshot := cloneTasks(next)
	s.mu.Unlock()

	if s.saver != nil {
		if err := s.saver.SaveTasks(ctx, snapshot); err != nil {
			return Task{}, fmt.Errorf("save new task: %w", err)
		}
	}

	s.mu.Lock()
	// Re-read under lock; other mutations may have landed during the save.
	merged := make([]Task, 0, len(items)+len(s.tasks))
	merged = append(merged, items...)
	merged = append(merged, s.tasks...)
	s.tasks = merged
	s.mu.Unlock()
	return cloneTask(items[0]), nil
}

// Toggle flips the completion state of a task. The in-memory state is
// updated even when persisting fails; the error is still returned.
func (s *Store) Toggle(ctx context.Context, id string) (Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	completed := s.tasks[i].SetCompleted(!s.tasks[i].Completed, s.now())
	updated := cloneTask(s.tasks[i])
	s.mu.Unlock()

	if completed && s.onComplete != nil {
		s.onComplete(ctx, updated)
	}
	if err := s.save(ctx); err != nil {
		return updated, fmt.Errorf("save toggled task: %w", err)
	}
	return updated, nil
}

// Update applies a partial edit to a task.
func (s *Store) Update(ctx context.Context, id string, p Patch) (Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := cloneTask(s.tasks[i])
	if p.Text != nil {
		next.Text = strings.TrimSpace(*p.Text)
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.DueDate != nil {
		next.DueDate = strings.TrimSpace(*p.DueDate)
	}
	if err := validation.Struct(next); err != nil {
		s.mu.Unlock()
		return Task{}, err
	}
	s.tasks[i] = next
	s.mu.Unlock()

	if err := s.save(ctx); err != nil {
		return next, fmt.Errorf("save updated task: %w", err)
	}
	return next, nil
}

// Delete removes a task from memory and from the backing store.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.mu.Unlock()

	if s.saver == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.saver.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// save writes the current list.
func (s *Store) save(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.saver.SaveTasks(ctx, s.List())
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTask(t Task) Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

func cloneTasks(in []Task) []Task {
	out := make([]Task, len(in))
	for i, t := range in {
		out[i] = cloneTask(t)
	}
	return out
}
