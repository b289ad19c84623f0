package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var (
	templatesMu sync.Mutex
	templates   = map[string]*template.Template{}
)

// RenderPrompt executes a prompt template. Parsed templates are cached by name.
func RenderPrompt(name, text string, data any) (string, error) {
	templatesMu.Lock()
	tmpl, ok := templates[name]
	if !ok {
		var err error
		tmpl, err = template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			templatesMu.Unlock()
			return "", fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	templatesMu.Unlock()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// GenerateText sends a single user prompt and returns the trimmed reply.
func GenerateText(ctx context.Context, chatModel model.BaseChatModel, prompt string) (string, error) {
	resp, err := chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("empty model response")
	}
	return strings.TrimSpace(resp.Content), nil
}
