package tracer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, Attribute{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Attribute{Key: "k", Value: true}, Bool("k", true))
	assert.Equal(t, Attribute{Key: "k", Value: int64(3)}, Int("k", 3))
	assert.Equal(t, Attribute{Key: "k", Value: int64(1500)}, Duration("k", 1500*time.Millisecond))
}

func TestToOTelAttributes_SkipsUnsupportedTypes(t *testing.T) {
	attrs := toOTelAttributes([]Attribute{String("a", "b"), {Key: "c", Value: struct{}{}}, Int("n", 2)})
	assert.Len(t, attrs, 2)
	assert.Nil(t, toOTelAttributes(nil))
}

func TestOTelTracer_SpanLifecycle(t *testing.T) {
	tr := NewOTel(WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), SpanVerifySubmission, String(AttrTransactionID, "tx-1"))
	assert.NotNil(t, ctx)
	span.SetAttributes(Int(AttrErrorCount, 1))
	span.AddEvent("checked")
	span.End(errors.New("boom"))
}

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	got, span := NewNoop().Start(ctx, SpanContinueExchange)
	assert.Equal(t, ctx, got)
	span.End(nil)
}
