package report

import (
	"context"
	"errors"
	"sync"

	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/task"
)

// State is the lifecycle position of a report draft.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// FailureReason tells a missing API key apart from other failures.
type FailureReason string

const (
	FailureNone               FailureReason = ""
	FailureMissingCredentials FailureReason = "missing_credentials"
	FailureOther              FailureReason = "other"
)

var (
	// ErrBusy is returned when a generation is already running for the draft.
	ErrBusy = errors.New("a report is already being generated")

	// ErrNotReady is returned when editing a draft that has no content.
	ErrNotReady = errors.New("no generated report to edit")
)

// Draft holds the report being worked on in a session.
//
//	Idle -> Generating -> Ready | Failed(missing_credentials) | Failed(other)
//	Ready -> Ready (edit), any non-generating state -> Generating (regenerate)
type Draft struct {
	mu      sync.Mutex
	state   State
	reason  FailureReason
	period  Period
	content Content
	err     error
}

// NewDraft returns an idle draft.
func NewDraft() *Draft {
	return &Draft{state: StateIdle}
}

// DraftView is a snapshot of a draft for display.
type DraftView struct {
	State   State         `json:"state"`
	Reason  FailureReason `json:"reason,omitempty"`
	Period  *Period       `json:"period,omitempty"`
	Content *Content      `json:"content,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Begin moves the draft into Generating for period p.
func (d *Draft) Begin(p Period) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateGenerating {
		return ErrBusy
	}
	d.state = StateGenerating
	d.reason = FailureNone
	d.period = p
	d.err = nil
	return nil
}

// Finish records the outcome of a generation started with Begin.
func (d *Draft) Finish(c Content, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state = StateFailed
		d.err = err
		d.content = Content{}
		if errors.Is(err, llm.ErrMissingCredentials) {
			d.reason = FailureMissingCredentials
		} else {
			d.reason = FailureOther
		}
		return
	}
	d.state = StateReady
	d.reason = FailureNone
	d.content = c
	d.err = nil
}

// Edit applies user corrections to a ready draft without calling the model.
func (d *Draft) Edit(e Edit) (Content, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateReady {
		return Content{}, ErrNotReady
	}
	d.content = e.apply(d.content)
	return d.content, nil
}

// Reset returns the draft to Idle, discarding content. A running
// generation is left alone.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateGenerating {
		return
	}
	d.state = StateIdle
	d.reason = FailureNone
	d.period = Period{}
	d.content = Content{}
	d.err = nil
}

// Ready returns the content and period when the draft is Ready.
func (d *Draft) Ready() (Content, Period, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateReady {
		return Content{}, Period{}, false
	}
	return d.content, d.period, true
}

// View returns a snapshot of the draft.
func (d *Draft) View() DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := DraftView{State: d.state, Reason: d.reason}
	if d.state != StateIdle {
		p := d.period
		v.Period = &p
	}
	if d.state == StateReady {
		c := d.content
		v.Content = &c
	}
	if d.err != nil {
		v.Error = d.err.Error()
	}
	return v
}

// Run drives d through one generation with the assembler.
func (a *Assembler) Run(ctx context.Context, d *Draft, tasks []task.Task, req Request) (Result, error) {
	if err := d.Begin(PeriodFor(req.Anchor)); err != nil {
		return Result{}, err
	}
	res, err := a.Generate(ctx, tasks, req)
	d.Finish(res.Content, err)
	return res, err
}
