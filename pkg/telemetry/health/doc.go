// Package health provides the liveness, readiness and version endpoints of
// the serve mode operations listener.
//
// Components register readiness checks on a Checker:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("model", health.ModelCheck(manager))
//	checker.RegisterCheck("store", health.StoreCheck(store))
//
//	mux := http.NewServeMux()
//	health.Register(mux, checker, health.VersionInfo{Version: version})
//
// /health always answers 200 while the process runs. /ready runs every
// check concurrently, each bounded by the checker's timeout, and answers
// 503 with status "degraded" when any of them fails.
package health
