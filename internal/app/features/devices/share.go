// internal/app/features/devices/share.go
package devices

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/sensorhub/internal/app/policy/devicepolicy"
	accessstore "github.com/dalemusser/sensorhub/internal/app/store/deviceaccess"
	"github.com/dalemusser/sensorhub/internal/app/system/limits"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type shareRequest struct {
	UserID     string `json:"user_id"`
	Permission string `json:"permission"`
}

// Share handles POST /devices/{deviceID}/access: grant or update a user's
// permission on a device. Only managers of the device may grant. Granting
// again with a different level replaces the existing grant.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	device, ok := h.loadDevice(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFacadeBody)
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	granteeID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		h.errorJSON(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	dec, err := devicepolicy.ForDevice(ctx, h.DB, userID, device)
	if err != nil {
		h.Log.Error("policy evaluation failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "authorization check failed")
		return
	}
	if !dec.CanManage {
		h.errorJSON(w, http.StatusForbidden, "no permission to share this device")
		return
	}

	err = accessstore.New(h.DB).Grant(ctx, device.ID, granteeID, userID, req.Permission)
	switch {
	case errors.Is(err, accessstore.ErrNotGroupMember):
		h.errorJSON(w, http.StatusConflict, "user is not a member of the device's group")
		return
	case errors.Is(err, accessstore.ErrBadPermission):
		h.errorJSON(w, http.StatusBadRequest, "permission must be 'admin' or 'reader'")
		return
	case err != nil:
		h.Log.Error("grant failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "grant failed")
		return
	}

	h.Log.Info("device access granted",
		zap.String("device", device.DeviceID),
		zap.String("grantee", granteeID.Hex()),
		zap.String("permission", req.Permission))
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":     "granted",
		"user_id":    granteeID.Hex(),
		"permission": req.Permission,
	})
}

// Revoke handles DELETE /devices/{deviceID}/access/{userID}. Revoking a
// grant that does not exist succeeds with no effect.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	device, ok := h.loadDevice(w, r)
	if !ok {
		return
	}
	granteeID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		h.errorJSON(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	dec, err := devicepolicy.ForDevice(ctx, h.DB, userID, device)
	if err != nil {
		h.Log.Error("policy evaluation failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "authorization check failed")
		return
	}
	if !dec.CanManage {
		h.errorJSON(w, http.StatusForbidden, "no permission to manage access for this device")
		return
	}

	if err := accessstore.New(h.DB).Revoke(ctx, device.ID, granteeID); err != nil {
		h.Log.Error("revoke failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "revoke failed")
		return
	}

	h.Log.Info("device access revoked",
		zap.String("device", device.DeviceID),
		zap.String("grantee", granteeID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
