// internal/app/features/telemetry/routes.go
package telemetry

import "github.com/go-chi/chi/v5"

// Routes returns the telemetry admin subrouter, mounted under /telemetry.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Delete("/", h.Purge)
	return r
}
