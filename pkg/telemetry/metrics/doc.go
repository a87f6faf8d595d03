// Package metrics exposes wardgate's Prometheus metrics.
//
// A single Collector implements the metrics observer interfaces declared by
// the access engine, the zone guard, the onboarding registrar, the
// authenticator, the audit recorder and the backup service:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	engine := access.NewEngine(store, sink).WithMetrics(collector)
//	go collector.Serve(ctx)
//
// All metrics use the "wardgate" namespace. Recording is a no-op when
// metrics are disabled in configuration.
package metrics
