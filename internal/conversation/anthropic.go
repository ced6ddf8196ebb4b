package conversation

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	antoption "github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 512

// AnthropicBackend streams replies from the Messages API.
type AnthropicBackend struct {
	client anthropic.Client
}

// NewAnthropicBackend creates the backend. Empty apiKey or baseURL fall back
// to the SDK defaults (ANTHROPIC_API_KEY, api.anthropic.com).
func NewAnthropicBackend(apiKey, baseURL string) *AnthropicBackend {
	opts := []antoption.RequestOption{antoption.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, antoption.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, antoption.WithBaseURL(baseURL))
	}
	return &AnthropicBackend{client: anthropic.NewClient(opts...)}
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string { return "anthropic" }

// Stream implements Backend. System turns become the system prompt.
func (b *AnthropicBackend) Stream(ctx context.Context, req Request, onText func(string)) error {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	system, messages := toAnthropicMessages(req.Turns)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := b.client.Messages.NewStreaming(ctx, params)
	defer func() { _ = stream.Close() }()

	started := false
	for stream.Next() {
		started = true
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				onText(delta.Text)
			}
		case anthropic.MessageStopEvent:
			return nil
		}
	}
	if err := stream.Err(); err != nil {
		return classify(b.Name(), err, started)
	}
	return nil
}

func toAnthropicMessages(turns []Turn) (string, []anthropic.MessageParam) {
	var system []string
	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case RoleSystem:
			system = append(system, t.Content)
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	return strings.Join(system, "\n\n"), msgs
}
