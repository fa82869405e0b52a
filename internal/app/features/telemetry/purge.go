// internal/app/features/telemetry/purge.go
package telemetry

import (
	"context"
	"net/http"

	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	telemetrystore "github.com/dalemusser/sensorhub/internal/app/store/telemetry"
	userstore "github.com/dalemusser/sensorhub/internal/app/store/users"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type purgeResponse struct {
	Scope   string `json:"scope"`
	Deleted int64  `json:"deleted"`
}

// Purge handles DELETE /telemetry?scope=all|device|group&id=...: removes
// stored readings for the requested scope. Device and group scopes require
// an id parameter naming the device or group. Global administrators only.
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	admin, err := userstore.New(h.DB).IsAdmin(ctx, userID)
	if err != nil {
		h.Log.Error("admin check failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "authorization check failed")
		return
	}
	if !admin {
		h.errorJSON(w, http.StatusForbidden, "administrator access required")
		return
	}

	scope := r.URL.Query().Get("scope")
	store := telemetrystore.New(h.DB)

	var deleted int64
	switch scope {
	case "all":
		deleted, err = store.PurgeAll(ctx)

	case "device":
		var id primitive.ObjectID
		id, ok = h.scopeID(w, r)
		if !ok {
			return
		}
		deleted, err = store.PurgeByDevice(ctx, id)

	case "group":
		var id primitive.ObjectID
		id, ok = h.scopeID(w, r)
		if !ok {
			return
		}
		var deviceIDs []primitive.ObjectID
		deviceIDs, err = devicestore.New(h.DB).IDsByGroup(ctx, id)
		if err != nil {
			break
		}
		if len(deviceIDs) == 0 {
			h.respondJSON(w, http.StatusOK, purgeResponse{Scope: scope, Deleted: 0})
			return
		}
		deleted, err = store.PurgeByDevices(ctx, deviceIDs)

	default:
		h.errorJSON(w, http.StatusBadRequest, "scope must be 'all', 'device', or 'group'")
		return
	}

	if err != nil {
		h.Log.Error("purge failed", zap.String("scope", scope), zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "purge failed")
		return
	}

	h.Log.Info("telemetry purged",
		zap.String("scope", scope),
		zap.Int64("deleted", deleted),
		zap.String("requested_by", userID.Hex()))
	h.respondJSON(w, http.StatusOK, purgeResponse{Scope: scope, Deleted: deleted})
}

// scopeID parses the id query parameter or writes 400.
func (h *Handler) scopeID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		h.errorJSON(w, http.StatusBadRequest, "id parameter is required for this scope")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		h.errorJSON(w, http.StatusBadRequest, "malformed id parameter")
		return primitive.NilObjectID, false
	}
	return id, true
}
