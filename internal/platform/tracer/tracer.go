// Package tracer provides a lightweight tracing abstraction for the exchange engine.
//
// Services depend on the Tracer interface rather than on OpenTelemetry APIs so
// tests can run with NoopTracer and production can plug in OTelTracer.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording err when non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the exchange module.
const (
	SpanStartExchange    = "exchange.start"
	SpanContinueExchange = "exchange.continue"
	SpanVerifySubmission = "exchange.verify_submission"
	SpanProofVerify      = "exchange.proof_verify"
	SpanAddReview        = "exchange.add_review"
)

// Attribute keys used by the exchange module.
const (
	AttrExchangeID    = "exchange.id"
	AttrTransactionID = "transaction.id"
	AttrInteractType  = "exchange.interact_type"
	AttrErrorCount    = "verification.error_count"
	AttrInProgress    = "response.processing_in_progress"
	AttrReviewResult  = "review.result"
)
