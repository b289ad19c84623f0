package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/josephgoksu/azubihub/internal/config"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/validation"
)

// Counts requested from the model.
const (
	SuggestionCount = 3
	FlashcardCount  = 5
)

// DefaultSuggestionContext is used when the caller gives no context.
const DefaultSuggestionContext = "I am a retail apprentice (V-Markt). Suggest typical tasks for Betrieb (e.g. MHD control, Cashier) and Berufsschule."

// FallbackSuggestions are offered when the model answer cannot be read.
var FallbackSuggestions = []string{"Warenverräumung Getränke", "MHD-Kontrolle Molkerei", "Kassenschulung"}

// SuggestTasks asks for concrete to-do items. Model errors are returned;
// an unreadable answer yields FallbackSuggestions.
func (m *Mentor) SuggestTasks(ctx context.Context, contextText string) ([]string, error) {
	if strings.TrimSpace(contextText) == "" {
		contextText = DefaultSuggestionContext
	}
	prompt, err := llm.RenderPrompt("task_suggestions", config.PromptTaskSuggestions, map[string]any{
		"Context": contextText,
		"Count":   SuggestionCount,
	})
	if err != nil {
		return nil, err
	}

	raw, err := m.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items, err := llm.DecodeJSON[[]string](raw)
	if err != nil {
		m.logger.Warn("could not parse task suggestions, using defaults", "error", err)
		return append([]string(nil), FallbackSuggestions...), nil
	}

	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), FallbackSuggestions...), nil
	}
	return out, nil
}

// Flashcard is one study card.
type Flashcard struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// Flashcards generates study cards for topic. An unreadable answer yields
// an empty list.
func (m *Mentor) Flashcards(ctx context.Context, topic string) ([]Flashcard, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, validation.Field("topic", "must not be empty")
	}
	prompt, err := llm.RenderPrompt("flashcards", config.PromptFlashcards, map[string]any{
		"Count": FlashcardCount,
		"Topic": topic,
	})
	if err != nil {
		return nil, err
	}

	raw, err := m.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	type card struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	parsed, err := llm.DecodeJSON[[]card](raw)
	if err != nil {
		m.logger.Warn("could not parse flashcards", "topic", topic, "error", err)
		return []Flashcard{}, nil
	}

	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	cards := make([]Flashcard, 0, len(parsed))
	for i, c := range parsed {
		if c.Question == "" {
			continue
		}
		cards = append(cards, Flashcard{
			ID:       stamp + strconv.Itoa(i),
			Question: c.Question,
			Answer:   c.Answer,
			Category: topic,
		})
	}
	return cards, nil
}

func (m *Mentor) generate(ctx context.Context, prompt string) (string, error) {
	cm, err := m.newModel(ctx)
	if err != nil {
		return "", err
	}
	start := time.Now()
	raw, err := llm.GenerateText(ctx, cm, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMentorFailed, err)
	}
	m.logger.Debug("mentor generation finished", "duration", time.Since(start), "chars", len(raw))
	return raw, nil
}
