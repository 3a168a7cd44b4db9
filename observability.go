package client

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/peteraglen/resilient-http-client"

	metricAttempts = "http.client.request.attempts"
	metricRetries  = "http.client.request.retries"

	attrHTTPRequestMethod  = "http.request.method"
	attrHTTPResponseStatus = "http.response.status_code"
	attrHTTPResendCount    = "http.request.resend_count"
	attrURLPath            = "url.path"
	attrErrorType          = "error.type"
)

type instruments struct {
	tracer   trace.Tracer
	attempts metric.Int64Counter
	retries  metric.Int64Counter
}

func newInstruments(o *Options) *instruments {
	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	mp := o.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(instrumentationName)

	attempts, err := meter.Int64Counter(metricAttempts,
		metric.WithDescription("Number of HTTP request attempts, including retries"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		o.requestLogger.Warnf("failed to create metric %s: %v", metricAttempts, err)
		attempts = noop.Int64Counter{}
	}

	retries, err := meter.Int64Counter(metricRetries,
		metric.WithDescription("Number of HTTP request retries scheduled after a failed attempt"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		o.requestLogger.Warnf("failed to create metric %s: %v", metricRetries, err)
		retries = noop.Int64Counter{}
	}

	return &instruments{
		tracer:   tp.Tracer(instrumentationName),
		attempts: attempts,
		retries:  retries,
	}
}

func (i *instruments) start(ctx context.Context, method, endpoint string) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrHTTPRequestMethod, method),
			attribute.String(attrURLPath, endpoint),
		),
	)
}

func (i *instruments) attempt(ctx context.Context, method string) {
	i.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String(attrHTTPRequestMethod, method)))
}

func (i *instruments) retry(ctx context.Context, method string, resp *Response) {
	attrs := []attribute.KeyValue{attribute.String(attrHTTPRequestMethod, method)}
	if resp != nil {
		attrs = append(attrs, attribute.Int(attrHTTPResponseStatus, resp.StatusCode))
	} else {
		attrs = append(attrs, attribute.String(attrErrorType, "transport"))
	}

	i.retries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (i *instruments) finish(span trace.Span, resp *Response, attempts int, err error) {
	defer span.End()

	if attempts > 1 {
		span.SetAttributes(attribute.Int(attrHTTPResendCount, attempts-1))
	}

	if resp != nil {
		span.SetAttributes(attribute.Int(attrHTTPResponseStatus, resp.StatusCode))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
