// Package observability wires OpenTelemetry tracing and metrics into the
// container.
//
// Exporters:
//
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, &mcfg)
//	defer mp.Shutdown(ctx)
//
// Instruments used by the container:
//
//	metrics, err := observability.NewMetrics(observability.Meter(mp))
//	ctx, op := observability.StartOperation(ctx, observability.Tracer(tp), observability.SpanResolve)
//	defer op.End(err, code)
//	metrics.RecordResolveEnd(ctx, hit, code, op.Duration())
package observability
