package conversation

import (
	"context"

	openai "github.com/openai/openai-go/v3"
	oaioption "github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIBackend streams chat completions.
type OpenAIBackend struct {
	client openai.Client
}

// NewOpenAIBackend creates the backend. Empty apiKey or baseURL fall back to
// the SDK defaults (OPENAI_API_KEY, api.openai.com).
func NewOpenAIBackend(apiKey, baseURL string) *OpenAIBackend {
	opts := []oaioption.RequestOption{oaioption.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, oaioption.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, oaioption.WithBaseURL(baseURL))
	}
	return &OpenAIBackend{client: openai.NewClient(opts...)}
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string { return "openai" }

// Stream implements Backend.
func (b *OpenAIBackend) Stream(ctx context.Context, req Request, onText func(string)) error {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: toOpenAIMessages(req.Turns),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	stream := b.client.Chat.Completions.NewStreaming(ctx, params)
	defer func() { _ = stream.Close() }()

	started := false
	for stream.Next() {
		started = true
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				onText(choice.Delta.Content)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return classify(b.Name(), err, started)
	}
	return nil
}

func toOpenAIMessages(turns []Turn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(t.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(t.Content))
		default:
			msgs = append(msgs, openai.UserMessage(t.Content))
		}
	}
	return msgs
}
