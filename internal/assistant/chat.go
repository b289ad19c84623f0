package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/josephgoksu/azubihub/internal/config"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/validation"
)

// ErrReplyActive is returned when sending while the previous answer is
// still streaming.
var ErrReplyActive = errors.New("a reply is still streaming")

// Chat is one conversation with the mentor. The model is created on the
// first message and reused for the rest of the chat.
type Chat struct {
	mentor *Mentor
	lang   i18n.Lang
	system string

	mu      sync.Mutex
	model   model.BaseChatModel
	history []*schema.Message
	active  *Reply
}

// StartChat prepares a chat in lang. user may be nil for a chat without
// personal context.
func (m *Mentor) StartChat(lang i18n.Lang, user *UserContext) (*Chat, error) {
	tmpl := config.SystemPromptMentorDE
	name := "mentor_de"
	if lang == i18n.English {
		tmpl = config.SystemPromptMentorEN
		name = "mentor_en"
	}
	system, err := llm.RenderPrompt(name, tmpl, struct{ User *userPromptData }{user.promptData(lang)})
	if err != nil {
		return nil, err
	}
	return &Chat{mentor: m, lang: lang, system: system}, nil
}

// History returns the user and assistant turns so far.
func (c *Chat) History() []*schema.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*schema.Message(nil), c.history...)
}

// Send streams the answer to text. onChunk is called for every chunk while
// the reply is running; it must not call Stop. Only one reply runs at a
// time.
func (c *Chat) Send(ctx context.Context, text string, onChunk func(string)) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validation.Field("message", "must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && !c.active.finished() {
		return nil, ErrReplyActive
	}
	if c.model == nil {
		cm, err := c.mentor.newModel(ctx)
		if err != nil {
			return nil, err
		}
		c.model = cm
	}

	input := make([]*schema.Message, 0, len(c.history)+2)
	input = append(input, schema.SystemMessage(c.system))
	input = append(input, c.history...)
	input = append(input, schema.UserMessage(text))

	streamCtx, cancel := context.WithCancel(ctx)
	sr, err := c.model.Stream(streamCtx, input)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrMentorFailed, err)
	}

	r := &Reply{cancel: cancel, onChunk: onChunk, done: make(chan struct{})}
	c.active = r
	go r.pump(sr, func(answer string) {
		c.mu.Lock()
		c.history = append(c.history, schema.UserMessage(text), schema.AssistantMessage(answer, nil))
		c.mu.Unlock()
	})
	return r, nil
}

// Reply is an answer being streamed.
type Reply struct {
	cancel  context.CancelFunc
	onChunk func(string)
	done    chan struct{}

	mu      sync.Mutex
	text    strings.Builder
	stopped bool
	err     error
}

func (r *Reply) pump(sr *schema.StreamReader[*schema.Message], record func(string)) {
	defer close(r.done)
	defer r.cancel()
	defer sr.Close()

	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}

		r.mu.Lock()
		if r.stopped {
			r.mu.Unlock()
			break
		}
		if errors.Is(err, context.Canceled) {
			r.stopped = true
			r.mu.Unlock()
			break
		}
		if err != nil {
			r.err = fmt.Errorf("%w: %w", ErrMentorFailed, err)
			r.mu.Unlock()
			break
		}
		if msg != nil && msg.Content != "" {
			r.text.WriteString(msg.Content)
			if r.onChunk != nil {
				r.onChunk(msg.Content)
			}
		}
		r.mu.Unlock()
	}

	r.mu.Lock()
	answer := r.text.String()
	failed := r.err != nil
	r.mu.Unlock()
	if !failed {
		record(answer)
	}
}

// Stop cancels the stream. Once Stop returns no further chunk is appended
// or delivered; the text received so far is kept.
func (r *Reply) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cancel()
}

// Wait blocks until the stream ends and returns the full text.
func (r *Reply) Wait() (string, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text.String(), r.err
}

// Text returns what has been received so far.
func (r *Reply) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text.String()
}

// Stopped reports whether Stop was called.
func (r *Reply) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *Reply) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
