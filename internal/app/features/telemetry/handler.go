// internal/app/features/telemetry/handler.go
package telemetry

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/sensorhub/internal/app/system/identity"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the administrative telemetry surface. Everything here is
// restricted to global administrators.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

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

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	userID, ok := identity.FromRequest(r)
	if !ok {
		h.errorJSON(w, http.StatusUnauthorized, "missing or malformed "+identity.Header+" header")
		return primitive.NilObjectID, false
	}
	return userID, true
}
