// Package health serves liveness, readiness and version endpoints next to the
// metrics endpoint.
//
//	checker := health.New(2 * time.Second)
//	checker.Register("database", health.PingCheck(db))
//	health.Mount(mux, checker, health.NewVersionInfo(version, commit, buildTime))
//
// /healthz always answers 200. /readyz runs every registered check
// concurrently and answers 503 when any of them fails or times out.
package health
