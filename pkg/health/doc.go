// Package health provides Kubernetes-style liveness and readiness handlers
// with gating and informational checks.
//
// Gating checks (the database, say) return 503 on failure and take the
// instance out of rotation. Informational checks report in the response body
// and flip the status to "degraded" but never gate: a service with a local
// cache tier keeps serving while the shared tier is down, and its readiness
// probe must say so.
//
//	mux.Get("/livez", health.LivenessHandler())
//	mux.Get("/readyz", health.ReadinessHandler(
//	    health.Checks{"postgres": pool.Ping},
//	    health.WithInformational(health.Checks{"cache": mgr.Healthcheck()}),
//	))
//
// Checks run in parallel under a shared timeout (default 5s). Append
// ?format=json or send Accept: application/json for the structured body.
package health
