// Package llmtest provides a scripted chat model for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/josephgoksu/azubihub/internal/llm"
)

// ChatModel implements model.BaseChatModel with canned output.
type ChatModel struct {
	// Reply is returned by Generate.
	Reply string
	// Err fails Generate and Stream.
	Err error
	// Chunks are emitted by Stream in order.
	Chunks []string
	// Gate, when set, is read once before each chunk is emitted.
	Gate chan struct{}

	mu    sync.Mutex
	calls [][]*schema.Message
}

// Generate records the input and returns Reply.
func (m *ChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.record(input)
	if m.Err != nil {
		return nil, m.Err
	}
	return schema.AssistantMessage(m.Reply, nil), nil
}

// Stream records the input and emits Chunks until done or ctx is cancelled.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.record(input)
	if m.Err != nil {
		return nil, m.Err
	}

	sr, sw := schema.Pipe[*schema.Message](0)
	go func() {
		defer sw.Close()
		for _, c := range m.Chunks {
			if m.Gate != nil {
				select {
				case <-m.Gate:
				case <-ctx.Done():
					sw.Send(nil, ctx.Err())
					return
				}
			}
			if closed := sw.Send(schema.AssistantMessage(c, nil), nil); closed {
				return
			}
		}
	}()
	return sr, nil
}

// Calls returns the message lists passed to the model so far.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

// LastPrompt returns the content of the last message of the last call.
func (m *ChatModel) LastPrompt() string {
	calls := m.Calls()
	if len(calls) == 0 || len(calls[len(calls)-1]) == 0 {
		return ""
	}
	last := calls[len(calls)-1]
	return last[len(last)-1].Content
}

func (m *ChatModel) record(input []*schema.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, input)
}

// Factory returns a factory that always hands out m.
func Factory(m model.BaseChatModel) llm.ChatModelFactory {
	return func(context.Context, llm.Config) (model.BaseChatModel, error) {
		return m, nil
	}
}
