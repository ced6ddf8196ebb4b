package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/zjrosen/shellpal/internal/config"
)

// Request is what a backend receives for one streamed reply.
type Request struct {
	Model     string
	MaxTokens int
	Turns     []Turn
}

// Backend streams a reply. onText is called, in order, for every non-empty
// text fragment. Stream returns when the backend signals the end of the
// reply or fails; failures are *BackendError unless ctx was cancelled.
type Backend interface {
	Name() string
	Stream(ctx context.Context, req Request, onText func(string)) error
}

// ErrorKind classifies a backend failure.
type ErrorKind int

const (
	// KindTransport means the request could not be opened.
	KindTransport ErrorKind = iota
	// KindStream means the stream broke after it started.
	KindStream
	// KindDecode means a fragment could not be decoded.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStream:
		return "stream"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// BackendError reports a failed request. It never aborts the session.
type BackendError struct {
	Backend string
	Kind    ErrorKind
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Backend, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// classify wraps a stream error. started reports whether any event arrived
// before the failure.
func classify(backend string, err error, started bool) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &BackendError{Backend: backend, Kind: KindDecode, Err: err}
	case started:
		return &BackendError{Backend: backend, Kind: KindStream, Err: err}
	default:
		return &BackendError{Backend: backend, Kind: KindTransport, Err: err}
	}
}

// NewBackend builds the backend selected in config. The API key is read from
// cfg.APIKeyEnv when set; otherwise each SDK reads its own default variable.
func NewBackend(cfg config.BackendConfig) (Backend, error) {
	var apiKey string
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	switch cfg.Provider {
	case "", config.ProviderOpenAI:
		return NewOpenAIBackend(apiKey, cfg.APIBase), nil
	case config.ProviderAnthropic:
		return NewAnthropicBackend(apiKey, cfg.APIBase), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}
