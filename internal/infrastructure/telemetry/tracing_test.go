package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/telemetry"
)

// setupTestTracer installs an in-memory span recorder as the global provider
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	return sr
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	orderID := uuid.New()
	ctx, span := telemetry.StartServiceSpan(context.Background(), "purchase_order", "submit",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
	)
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "purchase_order.submit", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())

	v, ok := attrValue(spans[0].Attributes(), telemetry.SpanAttrOrderID)
	require.True(t, ok)
	assert.Equal(t, orderID.String(), v.AsString())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "payment.schedule")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInstallmentCount, 3,
		telemetry.SpanAttrHasDivergence, false,
		42, "skipped",
		"dangling",
	)
	span.End()

	attrs := sr.Ended()[0].Attributes()
	count, ok := attrValue(attrs, telemetry.SpanAttrInstallmentCount)
	require.True(t, ok)
	assert.Equal(t, int64(3), count.AsInt64())
	divergence, ok := attrValue(attrs, telemetry.SpanAttrHasDivergence)
	require.True(t, ok)
	assert.False(t, divergence.AsBool())
	assert.Len(t, attrs, 2)
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "purchase_order.approve")
	telemetry.RecordError(span, errors.New("invalid status/step combination"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestSetOKAndAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "payment_window.resolve")
	telemetry.AddEvent(span, "window_snapped", telemetry.SpanAttrPaymentWindow, "15")
	telemetry.SetOK(span)
	span.End()

	s := sr.Ended()[0]
	assert.Equal(t, codes.Ok, s.Status().Code)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "window_snapped", s.Events()[0].Name)
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "e")
	})
}
