// Package tracing provides OpenTelemetry spans for wardgate.
//
// A Tracer is created from config.TracingConfig. When tracing is disabled
// the tracer is a noop and spans cost a few allocations at most. A nil
// *Tracer is valid and behaves like a disabled one, so components can hold
// an optional tracer without nil checks:
//
//	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, version)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	engine := access.NewEngine(store, recorder).WithTracer(tracer)
//
// Spans are exported over OTLP gRPC. Sampling follows the configured
// strategy ("always", "never" or "ratio") and always respects the parent
// span's decision.
//
// Span names follow "<component>.<operation>", e.g. "access.decide",
// "zone.enforce", "onboarding.create_account", "audit.write" and
// "dispatch.tick". Attribute keys are defined in attributes.go.
package tracing
