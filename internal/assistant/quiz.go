package assistant

import (
	"context"
	"errors"
	"sync"

	"github.com/josephgoksu/azubihub/internal/progress"
)

// ErrQuizFinished is returned when answering after the last card.
var ErrQuizFinished = errors.New("quiz already finished")

// Awarder grants experience points.
type Awarder interface {
	Award(ctx context.Context, a progress.Award) (progress.Snapshot, error)
}

// Quiz walks through a set of flashcards and awards xp for correct answers
// and for finishing the set.
type Quiz struct {
	mu      sync.Mutex
	cards   []Flashcard
	index   int
	score   int
	done    bool
	awarder Awarder
}

// QuizState is the position within a quiz.
type QuizState struct {
	Index    int                `json:"index"`
	Total    int                `json:"total"`
	Score    int                `json:"score"`
	Finished bool               `json:"finished"`
	Current  *Flashcard         `json:"current,omitempty"`
	Progress *progress.Snapshot `json:"progress,omitempty"`
}

// NewQuiz starts a quiz over cards.
func NewQuiz(cards []Flashcard, awarder Awarder) *Quiz {
	return &Quiz{cards: append([]Flashcard(nil), cards...), awarder: awarder, done: len(cards) == 0}
}

// State returns the current position.
func (q *Quiz) State() QuizState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stateLocked()
}

// Answer records whether the current card was answered correctly and moves
// on. Answering the last card finishes the set.
func (q *Quiz) Answer(ctx context.Context, correct bool) (QuizState, error) {
	q.mu.Lock()
	if q.done {
		st := q.stateLocked()
		q.mu.Unlock()
		return st, ErrQuizFinished
	}

	var awards []progress.Award
	if correct {
		q.score++
		awards = append(awards, progress.AwardQuizCorrect)
	}
	if q.index < len(q.cards)-1 {
		q.index++
	} else {
		q.done = true
		awards = append(awards, progress.AwardQuizSetFinished)
	}
	st := q.stateLocked()
	q.mu.Unlock()

	var errs []error
	for _, a := range awards {
		snap, err := q.awarder.Award(ctx, a)
		st.Progress = &snap
		if err != nil {
			errs = append(errs, err)
		}
	}
	return st, errors.Join(errs...)
}

// Finish ends the set early and awards the completion bonus once.
func (q *Quiz) Finish(ctx context.Context) (QuizState, error) {
	q.mu.Lock()
	if q.done {
		st := q.stateLocked()
		q.mu.Unlock()
		return st, ErrQuizFinished
	}
	q.done = true
	st := q.stateLocked()
	q.mu.Unlock()

	snap, err := q.awarder.Award(ctx, progress.AwardQuizSetFinished)
	st.Progress = &snap
	return st, err
}

func (q *Quiz) stateLocked() QuizState {
	st := QuizState{Index: q.index, Total: len(q.cards), Score: q.score, Finished: q.done}
	if !q.done && q.index < len(q.cards) {
		c := q.cards[q.index]
		st.Current = &c
	}
	return st
}
