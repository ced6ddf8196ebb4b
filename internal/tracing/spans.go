package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanConversationRequest is the span covering one streamed backend call.
const SpanConversationRequest = "conversation.request"

// Span attribute keys.
const (
	AttrRequestID = "request.id"
	AttrProvider  = "backend.provider"
	AttrModel     = "backend.model"
	AttrTurns     = "history.turns"
	AttrFragments = "response.fragments"
	AttrChars     = "response.chars"
	AttrErrorKind = "error.kind"
)

// Event names.
const (
	EventFirstFragment = "first_fragment"
)

// RequestInfo describes a backend request when its span starts.
type RequestInfo struct {
	ID       string
	Provider string
	Model    string
	Turns    int
}

// StartRequest opens a conversation.request span.
func StartRequest(ctx context.Context, tracer trace.Tracer, info RequestInfo) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanConversationRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrRequestID, info.ID),
			attribute.String(AttrProvider, info.Provider),
			attribute.String(AttrModel, info.Model),
			attribute.Int(AttrTurns, info.Turns),
		),
	)
}

// EndRequest records the outcome of a request and ends the span.
// errKind is recorded only when err is non-nil.
func EndRequest(span trace.Span, fragments, chars int, errKind string, err error) {
	span.SetAttributes(
		attribute.Int(AttrFragments, fragments),
		attribute.Int(AttrChars, chars),
	)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorKind, errKind))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
