package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("orders", "1.2.3", "staging")
	if err != nil {
		t.Fatalf("newResource failed: %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got[AttrServiceName] != "orders" || got[AttrServiceVersion] != "1.2.3" || got[AttrEnvironment] != "staging" {
		t.Errorf("unexpected resource attributes %v", got)
	}
}

func TestSamplerFor(t *testing.T) {
	if samplerFor(1.0) != sdktrace.AlwaysSample() {
		t.Error("expected AlwaysSample for rate 1")
	}
	if samplerFor(0) != sdktrace.NeverSample() {
		t.Error("expected NeverSample for rate 0")
	}
	if samplerFor(0.5) == nil {
		t.Error("expected ratio sampler")
	}
}

func TestNewMetricsNoop(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	m.RecordResolveStart(context.Background())
	m.RecordResolveEnd(context.Background(), false, "", time.Millisecond)
	m.RecordConstruction(context.Background(), "Repo", "singleton", time.Millisecond)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordResolveStart(context.Background())
	m.RecordResolveEnd(context.Background(), true, "CYCLIC_DEPENDENCY", time.Millisecond)
	m.RecordConstruction(context.Background(), "Repo", "transient", time.Millisecond)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(Meter(mp))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	ctx := context.Background()
	m.RecordResolveStart(ctx)
	m.RecordConstruction(ctx, "Service", "singleton", 2*time.Millisecond)
	m.RecordResolveEnd(ctx, false, "", 3*time.Millisecond)
	m.RecordResolveStart(ctx)
	m.RecordResolveEnd(ctx, false, "UNRESOLVED_DEPENDENCY", time.Millisecond)

	data := collect(t, reader)

	resolutions, ok := data[MetricResolutions].(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected %s sum, got %T", MetricResolutions, data[MetricResolutions])
	}
	var total int64
	for _, dp := range resolutions.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Errorf("expected 2 resolutions, got %d", total)
	}

	active, ok := data[MetricResolutionsActive].(metricdata.Sum[int64])
	if !ok || len(active.DataPoints) != 1 || active.DataPoints[0].Value != 0 {
		t.Errorf("expected active resolutions back to 0, got %+v", data[MetricResolutionsActive])
	}

	errs, ok := data[MetricErrors].(metricdata.Sum[int64])
	if !ok || len(errs.DataPoints) != 1 {
		t.Fatalf("expected one error data point, got %+v", data[MetricErrors])
	}
	if v, _ := errs.DataPoints[0].Attributes.Value(attribute.Key(AttrErrorCode)); v.AsString() != "UNRESOLVED_DEPENDENCY" {
		t.Errorf("unexpected error code attribute %v", v.AsString())
	}

	constructions, ok := data[MetricConstructions].(metricdata.Sum[int64])
	if !ok || len(constructions.DataPoints) != 1 || constructions.DataPoints[0].Value != 1 {
		t.Errorf("expected one construction, got %+v", data[MetricConstructions])
	}
}

func TestOperationSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	ctx, op := StartOperation(context.Background(), Tracer(tp), SpanResolve,
		attribute.String(AttrTypeKey, "Service[PgRepo]"))
	op.SetAttributes(attribute.Bool(AttrCacheHit, false))
	_, child := StartOperation(ctx, Tracer(tp), SpanConstruct)
	child.End(nil, "")
	op.End(fmt.Errorf("boom"), "CONSTRUCTION_FAILED")

	if op.Duration() < 0 {
		t.Error("expected non-negative duration")
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	construct, resolve := spans[0], spans[1]
	if construct.Name() != SpanConstruct || resolve.Name() != SpanResolve {
		t.Errorf("unexpected span names %s, %s", construct.Name(), resolve.Name())
	}
	if construct.Parent().SpanID() != resolve.SpanContext().SpanID() {
		t.Error("expected construct span to be a child of resolve")
	}
	if construct.Status().Code != codes.Unset {
		t.Errorf("expected successful child, got %v", construct.Status())
	}
	if resolve.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", resolve.Status())
	}
	attrs := map[attribute.Key]string{}
	for _, kv := range resolve.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	if attrs[AttrTypeKey] != "Service[PgRepo]" || attrs[AttrErrorCode] != "CONSTRUCTION_FAILED" || attrs[AttrCacheHit] != "false" {
		t.Errorf("unexpected attributes %v", attrs)
	}
}

func TestSetSpanErrorIgnoresNil(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	_, span := Tracer(tp).Start(context.Background(), "x")
	SetSpanError(span, nil, "X")
	SetSpanError(nil, fmt.Errorf("ignored"), "X")
	span.End()
	if sr.Ended()[0].Status().Code != codes.Unset {
		t.Error("nil error must not mark the span failed")
	}
}

func TestInitTracer(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")
	tp, err := InitTracer(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(ctx)
}

func TestInitMeter(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")
	mp, err := InitMeter(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}
	// Nothing listens on the endpoint; only bound the final flush.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(ctx)
}
