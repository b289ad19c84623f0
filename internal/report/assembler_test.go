package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/llm/llmtest"
	"github.com/josephgoksu/azubihub/internal/task"
)

func completedAt(y int, m time.Month, d, h int) *time.Time {
	at := time.Date(y, m, d, h, 0, 0, 0, time.UTC)
	return &at
}

// weekTasks covers the inclusion rules for the week of 2024-03-11.
func weekTasks() []task.Task {
	return []task.Task{
		{ID: "1", Text: "Regale eingeräumt", Category: task.CategoryWorkplace, Completed: true, CompletedAt: completedAt(2024, 3, 12, 9)},
		{ID: "2", Text: "Dreisatz", Category: task.CategorySchool, Completed: true, CompletedAt: completedAt(2024, 3, 14, 10)},
		{ID: "3", Text: "Inventur", Category: task.CategoryOther, Completed: true, CompletedAt: completedAt(2024, 3, 17, 23)},
		{ID: "4", Text: "Letzte Woche", Category: task.CategoryWorkplace, Completed: true, CompletedAt: completedAt(2024, 3, 10, 23)},
		{ID: "5", Text: "Nächste Woche", Category: task.CategoryWorkplace, Completed: true, CompletedAt: completedAt(2024, 3, 18, 0)},
		{ID: "6", Text: "Offen", Category: task.CategoryWorkplace},
		{ID: "7", Text: "Ohne Zeitstempel", Category: task.CategorySchool, Completed: true},
	}
}

func newTestAssembler(m model.BaseChatModel) *Assembler {
	return NewAssembler(llm.Static(llm.Config{Provider: llm.ProviderGemini, APIKey: "test"}), nil).
		WithChatModelFactory(llmtest.Factory(m))
}

func TestSelect(t *testing.T) {
	sel := Select(weekTasks(), PeriodFor(date(2024, 3, 15)))

	require.Len(t, sel.Workplace, 2)
	assert.Equal(t, "1", sel.Workplace[0].ID)
	assert.Equal(t, "3", sel.Workplace[1].ID, "Sonstiges joins the workplace bucket")
	require.Len(t, sel.School, 1)
	assert.Equal(t, "2", sel.School[0].ID)
	assert.Equal(t, 3, sel.Count())
}

func TestSelect_BoundaryIsHalfOpen(t *testing.T) {
	p := PeriodFor(date(2024, 3, 11))
	atStart := p.Start
	atEnd := p.End
	tasks := []task.Task{
		{ID: "start", Text: "a", Category: task.CategoryWorkplace, Completed: true, CompletedAt: &atStart},
		{ID: "end", Text: "b", Category: task.CategoryWorkplace, Completed: true, CompletedAt: &atEnd},
	}
	sel := Select(tasks, p)
	require.Len(t, sel.Workplace, 1)
	assert.Equal(t, "start", sel.Workplace[0].ID)
}

func TestGenerate_Success(t *testing.T) {
	m := &llmtest.ChatModel{Reply: "```json\n{\"betrieblicheTaetigkeiten\":\"• Regale eingeräumt\",\"unterweisung\":\"Inventur\",\"berufsschule\":\"• Dreisatz\",\"gesamtstunden\":38}\n```"}
	a := newTestAssembler(m)

	res, err := a.Generate(context.Background(), weekTasks(), Request{Anchor: date(2024, 3, 15), Style: StyleConcise, Number: "12"})
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, 3, res.TaskCount)
	assert.Equal(t, "2024-W11", res.Period.ID)
	assert.Equal(t, Content{
		Workplace:   "• Regale eingeräumt",
		Instruction: "Inventur",
		School:      "• Dreisatz",
		TotalHours:  "38",
	}, res.Content)

	prompt := m.LastPrompt()
	assert.Contains(t, prompt, `["Regale eingeräumt","Inventur"]`)
	assert.Contains(t, prompt, `["Dreisatz"]`)
	assert.Contains(t, prompt, "11.03.2024 - 16.03.2024")
	assert.Contains(t, prompt, "Tone: Concise")
	assert.Contains(t, prompt, "Report number: 12")
	assert.NotContains(t, prompt, "Letzte Woche")
}

func TestGenerate_MissingFieldsDefault(t *testing.T) {
	a := newTestAssembler(&llmtest.ChatModel{Reply: `{"betrieblicheTaetigkeiten":"- Kasse"}`})

	res, err := a.Generate(context.Background(), weekTasks(), Request{Anchor: date(2024, 3, 15)})
	require.NoError(t, err)
	assert.Equal(t, Content{Workplace: "- Kasse", TotalHours: "40"}, res.Content)
}

func TestGenerate_UnparseablePayload(t *testing.T) {
	tests := []struct {
		lang i18n.Lang
		want string
	}{
		{i18n.German, "Fehler bei der Erstellung."},
		{i18n.English, "Report generation failed."},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			a := newTestAssembler(&llmtest.ChatModel{Reply: "Das kann ich leider nicht."})

			res, err := a.Generate(context.Background(), weekTasks(), Request{Anchor: date(2024, 3, 15), Lang: tt.lang})
			require.NoError(t, err)
			assert.True(t, res.Fallback)
			assert.Equal(t, Content{Workplace: tt.want, TotalHours: "40"}, res.Content)
		})
	}
}

func TestGenerate_MissingCredentials(t *testing.T) {
	// The real factory must refuse to build a model without a key.
	a := NewAssembler(llm.Static(llm.Config{Provider: llm.ProviderGemini}), nil)

	_, err := a.Generate(context.Background(), weekTasks(), Request{Anchor: date(2024, 3, 15)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrMissingCredentials))
	assert.False(t, errors.Is(err, ErrGenerationFailed))
}

func TestGenerate_EmptyWeekCheckedBeforeCredentials(t *testing.T) {
	a := NewAssembler(llm.Static(llm.Config{Provider: llm.ProviderGemini}), nil)

	_, err := a.Generate(context.Background(), weekTasks(), Request{Anchor: date(2024, 1, 3)})
	assert.ErrorIs(t, err, ErrNoTasksInPeriod)
	assert.NotErrorIs(t, err, llm.ErrMissingCredentials)
}

func TestGenerate_ModelFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	a := newTestAssembler(&llmtest.ChatModel{Err: cause})

	_, err := a.Generate(context.Background(), weekTasks(), Request{Anchor: date(2024, 3, 15)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, cause)
}

func TestGenerate_NoTasks(t *testing.T) {
	m := &llmtest.ChatModel{Reply: "{}"}
	a := newTestAssembler(m)

	_, err := a.Generate(context.Background(), weekTasks(), Request{Anchor: date(2024, 1, 3)})
	assert.ErrorIs(t, err, ErrNoTasksInPeriod)
	assert.Empty(t, m.Calls(), "model must not be called for an empty week")
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleFormal, s)

	s, err = ParseStyle("detailed")
	require.NoError(t, err)
	assert.Equal(t, StyleDetailed, s)

	_, err = ParseStyle("poetic")
	assert.Error(t, err)
}

func TestContentIsEmpty(t *testing.T) {
	assert.True(t, Content{TotalHours: "40"}.IsEmpty())
	assert.True(t, Content{Workplace: "  \n"}.IsEmpty())
	assert.False(t, Content{School: "Mathe"}.IsEmpty())
}
