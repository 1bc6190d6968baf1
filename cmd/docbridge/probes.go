package main

import (
	"net/http"

	"github.com/JaimeStill/docbridge/pkg/handlers"
	"github.com/JaimeStill/docbridge/pkg/lifecycle"
	"github.com/JaimeStill/docbridge/pkg/routes"
)

func registerProbes(r routes.System, ready lifecycle.ReadinessChecker) {
	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/healthz",
		Summary: "Health check",
		Handler: handleHealthCheck,
	})

	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/readyz",
		Summary: "Readiness check",
		Handler: func(w http.ResponseWriter, r *http.Request) {
			handleReadinessCheck(w, ready)
		},
	})
}

// handleHealthCheck responds with OK status for health monitoring.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	handlers.RespondText(w, http.StatusOK, "OK")
}

func handleReadinessCheck(w http.ResponseWriter, ready lifecycle.ReadinessChecker) {
	if !ready.Ready() {
		handlers.RespondText(w, http.StatusServiceUnavailable, "NOT READY")
		return
	}
	handlers.RespondText(w, http.StatusOK, "READY")
}
