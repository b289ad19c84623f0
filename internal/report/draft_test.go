package report

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/llm/llmtest"
)

func TestDraft_Lifecycle(t *testing.T) {
	d := NewDraft()
	assert.Equal(t, StateIdle, d.View().State)

	p := PeriodFor(date(2024, 3, 15))
	require.NoError(t, d.Begin(p))
	assert.Equal(t, StateGenerating, d.View().State)
	assert.ErrorIs(t, d.Begin(p), ErrBusy)

	d.Finish(Content{Workplace: "- Kasse", TotalHours: "40"}, nil)
	v := d.View()
	assert.Equal(t, StateReady, v.State)
	require.NotNil(t, v.Content)
	assert.Equal(t, "- Kasse", v.Content.Workplace)

	text := "- Kasse\n- Regale"
	edited, err := d.Edit(Edit{Workplace: &text})
	require.NoError(t, err)
	assert.Equal(t, text, edited.Workplace)
	assert.Equal(t, StateReady, d.View().State)

	c, gotPeriod, ok := d.Ready()
	require.True(t, ok)
	assert.Equal(t, text, c.Workplace)
	assert.Equal(t, p.ID, gotPeriod.ID)

	d.Reset()
	assert.Equal(t, StateIdle, d.View().State)
	_, err = d.Edit(Edit{Workplace: &text})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestDraft_FailureReasons(t *testing.T) {
	d := NewDraft()
	p := PeriodFor(date(2024, 3, 15))

	require.NoError(t, d.Begin(p))
	d.Finish(Content{}, fmt.Errorf("gemini: %w", llm.ErrMissingCredentials))
	v := d.View()
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, FailureMissingCredentials, v.Reason)
	assert.Nil(t, v.Content)

	require.NoError(t, d.Begin(p))
	d.Finish(Content{}, fmt.Errorf("%w: boom", ErrGenerationFailed))
	assert.Equal(t, FailureOther, d.View().Reason)
}

func TestAssembler_Run(t *testing.T) {
	d := NewDraft()
	a := newTestAssembler(&llmtest.ChatModel{Reply: `{"betrieblicheTaetigkeiten":"- Kasse","gesamtstunden":"40"}`})

	_, err := a.Run(context.Background(), d, weekTasks(), Request{Anchor: date(2024, 3, 15)})
	require.NoError(t, err)
	assert.Equal(t, StateReady, d.View().State)

	failing := newTestAssembler(&llmtest.ChatModel{Err: errors.New("down")})
	_, err = failing.Run(context.Background(), d, weekTasks(), Request{Anchor: date(2024, 3, 15)})
	require.Error(t, err)
	assert.Equal(t, StateFailed, d.View().State)
	assert.Equal(t, FailureOther, d.View().Reason)
}
