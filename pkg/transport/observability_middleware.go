package transport

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/modelctx/mcp-client-go/pkg/observability"
)

// WithMetrics returns a middleware recording request and notification
// outcomes on the given provider.
func WithMetrics(metrics observability.MetricsProvider) Middleware {
	return func(inner Transport) Transport {
		return &metricsTransport{
			WrappedTransport: WrappedTransport{Inner: inner},
			metrics:          metrics,
		}
	}
}

type metricsTransport struct {
	WrappedTransport
	metrics observability.MetricsProvider
}

func (t *metricsTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	start := time.Now()
	result, err := t.Inner.SendRequest(ctx, method, params)
	t.metrics.RecordRequest(method, outcome(err), time.Since(start))
	return result, err
}

func (t *metricsTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	err := t.Inner.SendNotification(ctx, method, params)
	t.metrics.RecordNotification(method, outcome(err))
	return err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// WithTracing returns a middleware opening a client span per request
func WithTracing(tracing *observability.TracingProvider) Middleware {
	return func(inner Transport) Transport {
		return &tracingTransport{
			WrappedTransport: WrappedTransport{Inner: inner},
			tracing:          tracing,
		}
	}
}

type tracingTransport struct {
	WrappedTransport
	tracing *observability.TracingProvider
}

func (t *tracingTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	ctx, span := t.tracing.StartMethodSpan(ctx, method)
	defer span.End()

	result, err := t.Inner.SendRequest(ctx, method, params)
	if err != nil {
		span.RecordError(err, trace.WithAttributes(attribute.String("mcp.method", method)))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return result, err
}

func (t *tracingTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	ctx, span := t.tracing.StartMethodSpan(ctx, method)
	defer span.End()

	err := t.Inner.SendNotification(ctx, method, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
