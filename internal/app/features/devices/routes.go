// internal/app/features/devices/routes.go
package devices

import "github.com/go-chi/chi/v5"

// Routes returns the device facade subrouter, mounted under /devices.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Register)
	r.Get("/{deviceID}", h.Detail)
	r.Get("/{deviceID}/readings", h.Readings)
	r.Delete("/{deviceID}", h.Delete)
	r.Post("/{deviceID}/access", h.Share)
	r.Delete("/{deviceID}/access/{userID}", h.Revoke)
	return r
}
