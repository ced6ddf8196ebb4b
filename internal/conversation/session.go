package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/shellpal/internal/events"
	"github.com/zjrosen/shellpal/internal/log"
	"github.com/zjrosen/shellpal/internal/queue"
	"github.com/zjrosen/shellpal/internal/tracing"
)

// DefaultMaxTokens caps a reply when SessionConfig.MaxTokens is zero.
const DefaultMaxTokens = 512

// SessionConfig configures a Session.
type SessionConfig struct {
	Backend   Backend
	Model     string
	MaxTokens int
	Persona   Persona
	// Events receives ConversationToken and ConversationFinished events.
	Events *queue.Queue[events.Event]
	// Tracer records one span per request. Nil disables tracing.
	Tracer trace.Tracer
}

// Session owns the conversation history. Its loop processes one Action at
// a time, so a request is never issued while another is streaming.
type Session struct {
	backend   Backend
	model     string
	maxTokens int
	tracer    trace.Tracer
	actions   *queue.Queue[Action]
	events    *queue.Queue[events.Event]

	mu      sync.Mutex
	history []Turn
	persona Persona
}

// NewSession creates a session whose history holds only the persona's system turn.
func NewSession(cfg SessionConfig) *Session {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	evs := cfg.Events
	if evs == nil {
		evs = queue.New[events.Event]("conversation")
	}
	return &Session{
		backend:   cfg.Backend,
		model:     cfg.Model,
		maxTokens: maxTokens,
		tracer:    tracer,
		actions:   queue.New[Action]("actions"),
		events:    evs,
		history:   []Turn{{Role: RoleSystem, Content: cfg.Persona.Template()}},
		persona:   cfg.Persona,
	}
}

// Dispatch queues an action. It never blocks. Returns false after Close.
func (s *Session) Dispatch(a Action) bool {
	return s.actions.Push(a)
}

// Close stops accepting actions. Run returns once the queue is drained.
func (s *Session) Close() {
	s.actions.Close()
}

// Events returns the queue the session reports to.
func (s *Session) Events() *queue.Queue[events.Event] {
	return s.events
}

// History returns a copy of the history.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Persona returns the active persona.
func (s *Session) Persona() Persona {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persona
}

// Run processes actions until ctx is cancelled or the session is closed.
func (s *Session) Run(ctx context.Context) error {
	for {
		a, err := s.actions.Pop(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.handle(ctx, a)
	}
}

func (s *Session) handle(ctx context.Context, a Action) {
	switch a := a.(type) {
	case SendMessage:
		s.send(ctx, a.Text)
	case ClearHistory:
		s.mu.Lock()
		s.history = s.history[:1]
		s.mu.Unlock()
		log.Info(log.CatChat, "history cleared")
	case SwitchPersona:
		s.mu.Lock()
		s.history = []Turn{{Role: RoleSystem, Content: a.Persona.Template()}}
		s.persona = a.Persona
		s.mu.Unlock()
		log.Info(log.CatChat, "persona switched", "persona", a.Persona.Name())
		s.events.Push(events.ConversationToken{Text: a.Persona.Intro()})
	}
}

func (s *Session) send(ctx context.Context, text string) {
	s.mu.Lock()
	s.history = append(s.history, Turn{Role: RoleUser, Content: text})
	turns := make([]Turn, len(s.history))
	copy(turns, s.history)
	s.mu.Unlock()

	s.events.Push(events.ConversationFinished{Done: false})

	id := uuid.NewString()
	ctx, span := tracing.StartRequest(ctx, s.tracer, tracing.RequestInfo{
		ID:       id,
		Provider: s.backend.Name(),
		Model:    s.model,
		Turns:    len(turns),
	})
	log.Debug(log.CatChat, "request started", "id", id, "backend", s.backend.Name(), "turns", len(turns))

	var reply strings.Builder
	fragments := 0
	err := s.backend.Stream(ctx, Request{Model: s.model, MaxTokens: s.maxTokens, Turns: turns}, func(fragment string) {
		if fragment == "" {
			return
		}
		if fragments == 0 {
			span.AddEvent(tracing.EventFirstFragment)
		}
		fragments++
		reply.WriteString(fragment)
		s.events.Push(events.ConversationToken{Text: fragment})
	})

	var kind string
	if err != nil {
		var backendErr *BackendError
		if errors.As(err, &backendErr) {
			kind = backendErr.Kind.String()
		}
	}
	tracing.EndRequest(span, fragments, reply.Len(), kind, err)

	switch {
	case ctx.Err() != nil:
		log.Debug(log.CatChat, "request cancelled", "id", id)
		return
	case err != nil:
		// The user turn stays; partial text is not recorded as a reply.
		log.ErrorErr(log.CatChat, "request failed", err, "id", id, "kind", kind, "fragments", fragments)
	case reply.Len() > 0:
		s.mu.Lock()
		s.history = append(s.history, Turn{Role: RoleAssistant, Content: reply.String()})
		s.mu.Unlock()
		log.Debug(log.CatChat, "request finished", "id", id, "fragments", fragments, "chars", reply.Len())
	}

	s.events.Push(events.ConversationFinished{Done: true})
}
