package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/shellpal/internal/config"
)

func TestClassify(t *testing.T) {
	base := errors.New("boom")

	err := classify("x", base, false)
	var be *BackendError
	require.ErrorAs(t, err, &be)
	require.Equal(t, KindTransport, be.Kind)
	require.ErrorIs(t, err, base)

	err = classify("x", base, true)
	require.ErrorAs(t, err, &be)
	require.Equal(t, KindStream, be.Kind)

	decodeErr := json.Unmarshal([]byte("{bad"), &struct{}{})
	var syntaxErr *json.SyntaxError
	require.ErrorAs(t, decodeErr, &syntaxErr)
	err = classify("x", fmt.Errorf("decoding chunk: %w", decodeErr), true)
	require.ErrorAs(t, err, &be)
	require.Equal(t, KindDecode, be.Kind)

	require.ErrorIs(t, classify("x", context.Canceled, true), context.Canceled)
}

func TestBackendError_Message(t *testing.T) {
	err := &BackendError{Backend: "openai", Kind: KindDecode, Err: errors.New("bad json")}
	require.Equal(t, "openai decode error: bad json", err.Error())
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(config.BackendConfig{Provider: config.ProviderOpenAI})
	require.NoError(t, err)
	require.Equal(t, "openai", b.Name())

	b, err = NewBackend(config.BackendConfig{Provider: config.ProviderAnthropic, APIKeyEnv: "SHELLPAL_TEST_KEY"})
	require.NoError(t, err)
	require.Equal(t, "anthropic", b.Name())

	_, err = NewBackend(config.BackendConfig{Provider: "ollama"})
	require.Error(t, err)
}

func sseServer(t *testing.T, wantPath string, frames []string, captured *[]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, wantPath) {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			*captured, _ = io.ReadAll(r.Body)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, f := range frames {
			_, _ = io.WriteString(w, f)
			if fl, ok := w.(http.Flusher); ok {
				fl.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func collect(t *testing.T, b Backend, req Request) ([]string, error) {
	t.Helper()
	var got []string
	err := b.Stream(context.Background(), req, func(s string) { got = append(got, s) })
	return got, err
}

func openAIChunk(content string, finish string) string {
	finishJSON := "null"
	if finish != "" {
		finishJSON = fmt.Sprintf("%q", finish)
	}
	return fmt.Sprintf(`data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":%q},"finish_reason":%s}]}`+"\n\n", content, finishJSON)
}

func TestOpenAIBackend_Stream(t *testing.T) {
	var body []byte
	srv := sseServer(t, "/chat/completions", []string{
		openAIChunk("Hel", ""),
		openAIChunk("", ""),
		openAIChunk("lo", ""),
		openAIChunk("", "stop"),
		"data: [DONE]\n\n",
	}, &body)

	b := NewOpenAIBackend("test-key", srv.URL)
	got, err := collect(t, b, Request{
		Model:     "gpt-4o",
		MaxTokens: 512,
		Turns: []Turn{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Hel", "lo"}, got)

	var sent struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Stream    bool   `json:"stream"`
		Messages  []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &sent))
	require.Equal(t, "gpt-4o", sent.Model)
	require.Equal(t, 512, sent.MaxTokens)
	require.True(t, sent.Stream)
	require.Len(t, sent.Messages, 2)
	require.Equal(t, "system", sent.Messages[0].Role)
}

func TestOpenAIBackend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := collect(t, NewOpenAIBackend("k", srv.URL), Request{Model: "gpt-4o", Turns: []Turn{{Role: RoleUser, Content: "hi"}}})
	var be *BackendError
	require.ErrorAs(t, err, &be)
	require.Equal(t, KindTransport, be.Kind)
}

func anthropicEvent(name, data string) string {
	return "event: " + name + "\ndata: " + data + "\n\n"
}

func TestAnthropicBackend_Stream(t *testing.T) {
	var body []byte
	srv := sseServer(t, "/v1/messages", []string{
		anthropicEvent("message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"claude-test","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":3,"output_tokens":1}}}`),
		anthropicEvent("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`),
		anthropicEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi "}}`),
		anthropicEvent("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"there"}}`),
		anthropicEvent("content_block_stop", `{"type":"content_block_stop","index":0}`),
		anthropicEvent("message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":2}}`),
		anthropicEvent("message_stop", `{"type":"message_stop"}`),
	}, &body)

	b := NewAnthropicBackend("test-key", srv.URL)
	got, err := collect(t, b, Request{
		Model: "claude-test",
		Turns: []Turn{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hello"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Hi ", "there"}, got)

	var sent struct {
		MaxTokens int `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &sent))
	require.Equal(t, defaultAnthropicMaxTokens, sent.MaxTokens)
	require.Len(t, sent.System, 1)
	require.Equal(t, "be brief", sent.System[0].Text)
	require.Len(t, sent.Messages, 1, "system turns are not sent as messages")
	require.Equal(t, "user", sent.Messages[0].Role)
}

func TestToAnthropicMessages(t *testing.T) {
	system, msgs := toAnthropicMessages([]Turn{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleAssistant, Content: "r"},
	})
	require.Equal(t, "a", system)
	require.Len(t, msgs, 2)
}
