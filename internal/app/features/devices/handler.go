// internal/app/features/devices/handler.go
package devices

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	"github.com/dalemusser/sensorhub/internal/app/system/identity"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"github.com/dalemusser/sensorhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the device facade for the trusted web collaborator:
// listing, registration, detail, sharing, and deletion. Authentication
// happens upstream; the collaborator forwards the caller's identity and
// this handler enforces authorization via devicepolicy.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

// errorResponse is the JSON shape for all facade errors.
type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("encode response failed", zap.Error(err))
	}
}

func (h *Handler) errorJSON(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, errorResponse{Error: msg})
}

// requireUser extracts the forwarded caller identity or writes 401.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	userID, ok := identity.FromRequest(r)
	if !ok {
		h.errorJSON(w, http.StatusUnauthorized, "missing or malformed "+identity.Header+" header")
		return primitive.NilObjectID, false
	}
	return userID, true
}

// loadDevice fetches the device named by the {deviceID} URL parameter.
// Writes 400/404 on failure and reports ok=false.
func (h *Handler) loadDevice(w http.ResponseWriter, r *http.Request) (models.Device, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "deviceID"))
	if err != nil {
		h.errorJSON(w, http.StatusBadRequest, "malformed device id")
		return models.Device{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	device, err := devicestore.New(h.DB).GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.errorJSON(w, http.StatusNotFound, "device not found")
		return models.Device{}, false
	}
	if err != nil {
		h.Log.Error("device lookup failed", zap.String("device_id", oid.Hex()), zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "device lookup failed")
		return models.Device{}, false
	}
	return device, true
}
