// Package progress keeps the apprentice's experience points and the set of
// weekly reports marked as done.
package progress

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Award amounts. Awards only ever add to the total.
const (
	XPTaskCompleted   = 50
	XPQuizCorrect     = 20
	XPQuizSetFinished = 50
	XPReportCompleted = 100

	// XPPerLevel is the width of one level.
	XPPerLevel = 100
)

// Award names an event that earns experience.
type Award string

const (
	AwardTaskCompleted   Award = "task_completed"
	AwardQuizCorrect     Award = "quiz_correct"
	AwardQuizSetFinished Award = "quiz_set_finished"
	AwardReportCompleted Award = "report_completed"
)

// Points returns the xp granted for a, or 0 for unknown awards.
func (a Award) Points() int {
	switch a {
	case AwardTaskCompleted:
		return XPTaskCompleted
	case AwardQuizCorrect:
		return XPQuizCorrect
	case AwardQuizSetFinished:
		return XPQuizSetFinished
	case AwardReportCompleted:
		return XPReportCompleted
	}
	return 0
}

// LevelFor returns the level reached with xp: floor(xp/100) + 1.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// Snapshot is a point-in-time view of the ledger.
type Snapshot struct {
	XP               int      `json:"xp"`
	Level            int      `json:"level"`
	NextLevelAt      int      `json:"nextLevelAt"`
	CompletedReports []string `json:"completedReports"`
}

// Saver persists xp and the completed report ids together.
type Saver interface {
	SaveProgress(ctx context.Context, xp int, completedReports []string) error
}

// Ledger is the session's experience counter plus report completion set.
type Ledger struct {
	mu      sync.Mutex
	xp      int
	reports []string
	saver   Saver
}

// NewLedger restores a ledger from persisted values.
func NewLedger(xp int, completedReports []string, saver Saver) *Ledger {
	if xp < 0 {
		xp = 0
	}
	reports := make([]string, 0, len(completedReports))
	for _, id := range completedReports {
		if !slices.Contains(reports, id) {
			reports = append(reports, id)
		}
	}
	return &Ledger{xp: xp, reports: reports, saver: saver}
}

// Award adds the points for a and persists the new total. The in-memory
// total is kept even when saving fails.
func (l *Ledger) Award(ctx context.Context, a Award) (Snapshot, error) {
	pts := a.Points()
	if pts == 0 {
		return l.Snapshot(), fmt.Errorf("unknown award %q", a)
	}

	l.mu.Lock()
	l.xp += pts
	snap := l.snapshotLocked()
	l.mu.Unlock()

	return snap, l.save(ctx, snap)
}

// ToggleReport flips the done state of a report period. Marking a report
// done awards XPReportCompleted; unmarking it keeps the xp.
func (l *Ledger) ToggleReport(ctx context.Context, periodID string) (bool, Snapshot, error) {
	if periodID == "" {
		return false, l.Snapshot(), fmt.Errorf("period id is required")
	}

	l.mu.Lock()
	done := false
	if i := slices.Index(l.reports, periodID); i >= 0 {
		l.reports = slices.Delete(l.reports, i, i+1)
	} else {
		l.reports = append(l.reports, periodID)
		l.xp += XPReportCompleted
		done = true
	}
	snap := l.snapshotLocked()
	l.mu.Unlock()

	return done, snap, l.save(ctx, snap)
}

// IsReportDone reports whether periodID is in the completion set.
func (l *Ledger) IsReportDone(periodID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.reports, periodID)
}

// Snapshot returns the current totals.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	level := LevelFor(l.xp)
	return Snapshot{
		XP:               l.xp,
		Level:            level,
		NextLevelAt:      level * XPPerLevel,
		CompletedReports: slices.Clone(l.reports),
	}
}

func (l *Ledger) save(ctx context.Context, snap Snapshot) error {
	if l.saver == nil {
		return nil
	}
	if err := l.saver.SaveProgress(ctx, snap.XP, snap.CompletedReports); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
