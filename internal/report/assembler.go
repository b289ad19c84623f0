package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/josephgoksu/azubihub/internal/config"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/task"
)

var (
	// ErrGenerationFailed wraps any model failure other than missing credentials.
	ErrGenerationFailed = errors.New("report generation failed")

	// ErrNoTasksInPeriod is returned when no completed task falls into the week.
	ErrNoTasksInPeriod = errors.New("no completed tasks in this reporting week")
)

// Request describes one report generation.
type Request struct {
	Anchor time.Time // Any day of the reporting week
	Style  Style     // Writing tone, Formal when empty
	Number string    // Optional running report number ("Nr.")
	Lang   i18n.Lang // Language of fallback texts
}

// Selection is the set of completed tasks that belong to a period.
type Selection struct {
	Period    Period
	Workplace []task.Task // Betrieb and Sonstiges
	School    []task.Task // Berufsschule
}

// Count returns the number of selected tasks.
func (s Selection) Count() int {
	return len(s.Workplace) + len(s.School)
}

// Select keeps the completed tasks whose completion time lies in p and
// partitions them into the workplace and school buckets. Input order is kept.
func Select(tasks []task.Task, p Period) Selection {
	sel := Selection{Period: p}
	for _, t := range tasks {
		if !t.Completed || t.CompletedAt == nil || !p.Contains(*t.CompletedAt) {
			continue
		}
		switch t.Category {
		case task.CategorySchool:
			sel.School = append(sel.School, t)
		default:
			sel.Workplace = append(sel.Workplace, t)
		}
	}
	return sel
}

// Result is the outcome of a successful generation.
type Result struct {
	Period    Period  `json:"period"`
	Content   Content `json:"content"`
	TaskCount int     `json:"taskCount"`
	// Fallback is set when the model answer could not be read and Content
	// carries the localized failure text.
	Fallback bool `json:"fallback"`
}

// Assembler turns a week of completed tasks into report text.
type Assembler struct {
	source llm.ConfigSource
	logger *slog.Logger

	// chatModelFactory allows tests to inject a fake model
	chatModelFactory llm.ChatModelFactory
}

// NewAssembler creates an assembler that resolves the model configuration
// from source on every call, so a changed API key applies immediately.
func NewAssembler(source llm.ConfigSource, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		source:           source,
		logger:           logger,
		chatModelFactory: llm.NewChatModel,
	}
}

// WithChatModelFactory replaces the model constructor.
func (a *Assembler) WithChatModelFactory(f llm.ChatModelFactory) *Assembler {
	a.chatModelFactory = f
	return a
}

// Generate selects the tasks of the request's week and asks the model for
// the report text. A week without completed tasks fails with
// ErrNoTasksInPeriod before the model is resolved, so missing credentials
// only surface as llm.ErrMissingCredentials once the week has tasks. Any
// other model failure is ErrGenerationFailed. An unreadable answer is not
// an error: the result then holds the localized failure payload.
func (a *Assembler) Generate(ctx context.Context, tasks []task.Task, req Request) (Result, error) {
	period := PeriodFor(req.Anchor)
	sel := Select(tasks, period)
	if sel.Count() == 0 {
		return Result{Period: period}, ErrNoTasksInPeriod
	}

	style := req.Style
	if style == "" {
		style = StyleFormal
	}
	lang := req.Lang
	if lang == "" {
		lang = i18n.Default
	}

	prompt, err := buildPrompt(sel, style, req.Number, lang)
	if err != nil {
		return Result{Period: period}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	cfg := a.source()
	chatModel, err := a.chatModelFactory(ctx, cfg)
	if err != nil {
		if errors.Is(err, llm.ErrMissingCredentials) {
			return Result{Period: period}, err
		}
		return Result{Period: period}, fmt.Errorf("%w: create model: %w", ErrGenerationFailed, err)
	}

	start := time.Now()
	raw, err := llm.GenerateText(ctx, chatModel, prompt)
	if err != nil {
		return Result{Period: period}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	a.logger.Debug("report generated",
		"period", period.ID,
		"tasks", sel.Count(),
		"provider", cfg.Provider,
		"duration", time.Since(start))

	content, err := parseContent(raw)
	if err != nil {
		a.logger.Warn("unreadable report payload", "period", period.ID, "error", err)
		return Result{
			Period:    period,
			Content:   FailureContent(lang),
			TaskCount: sel.Count(),
			Fallback:  true,
		}, nil
	}
	return Result{Period: period, Content: content, TaskCount: sel.Count()}, nil
}

// FailureContent is the payload shown when the model answer is unusable.
func FailureContent(lang i18n.Lang) Content {
	return Content{
		Workplace:  lang.T(i18n.ReportFailed),
		TotalHours: DefaultTotalHours,
	}
}

func buildPrompt(sel Selection, style Style, number string, lang i18n.Lang) (string, error) {
	workplace, err := json.Marshal(texts(sel.Workplace))
	if err != nil {
		return "", err
	}
	school, err := json.Marshal(texts(sel.School))
	if err != nil {
		return "", err
	}
	return llm.RenderPrompt("weekly_report", config.PromptWeeklyReport, map[string]any{
		"Workplace": string(workplace),
		"School":    string(school),
		"DateRange": sel.Period.DateRange(),
		"Week":      sel.Period.Week,
		"Number":    strings.TrimSpace(number),
		"Style":     string(style),
		"NoSchool":  i18n.German.T(i18n.NoSchool),
	})
}

func texts(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Text)
	}
	return out
}

// parseContent reads the model's JSON object. Missing or non-string fields
// become empty strings, except the weekly hours which default to 40.
func parseContent(raw string) (Content, error) {
	fields, err := llm.DecodeJSON[map[string]any](raw)
	if err != nil {
		return Content{}, err
	}
	if fields == nil {
		return Content{}, fmt.Errorf("payload is not a JSON object")
	}

	c := Content{
		Workplace:   stringField(fields["betrieblicheTaetigkeiten"]),
		Instruction: stringField(fields["unterweisung"]),
		School:      stringField(fields["berufsschule"]),
		TotalHours:  stringField(fields["gesamtstunden"]),
	}
	if strings.TrimSpace(c.TotalHours) == "" {
		c.TotalHours = DefaultTotalHours
	}
	return c, nil
}

func stringField(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		// Some models answer bullet lists as arrays.
		lines := make([]string, 0, len(x))
		for _, item := range x {
			if s := stringField(item); s != "" {
				lines = append(lines, s)
			}
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}
