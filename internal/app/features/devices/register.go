// internal/app/features/devices/register.go
package devices

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	membershipstore "github.com/dalemusser/sensorhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/sensorhub/internal/app/store/users"
	"github.com/dalemusser/sensorhub/internal/app/system/limits"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// registerRequest is the body for POST /devices.
type registerRequest struct {
	DeviceID    string `json:"device_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DeviceType  string `json:"device_type"`
	GroupID     string `json:"group_id"`
}

// Register handles POST /devices: registers a device in a group. The
// caller must be a member of that group (any role) or a global
// administrator; the caller becomes the device's owner.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req registerRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFacadeBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorJSON(w, http.StatusBadRequest, "malformed request body")
		return
	}

	req.DeviceID = strings.TrimSpace(req.DeviceID)
	req.Name = strings.TrimSpace(req.Name)
	if req.DeviceID == "" || req.Name == "" {
		h.errorJSON(w, http.StatusBadRequest, "device_id and name are required")
		return
	}
	if !models.ValidDeviceType(req.DeviceType) {
		h.errorJSON(w, http.StatusBadRequest, "unknown device_type")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		h.errorJSON(w, http.StatusBadRequest, "malformed group_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	// Membership gate: only group members (or global admins) register
	// devices into a group.
	member, err := membershipstore.New(h.DB).Exists(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "membership check failed")
		return
	}
	if !member {
		admin, err := userstore.New(h.DB).IsAdmin(ctx, userID)
		if err != nil {
			h.Log.Error("admin check failed", zap.Error(err))
			h.errorJSON(w, http.StatusInternalServerError, "membership check failed")
			return
		}
		if !admin {
			h.errorJSON(w, http.StatusForbidden, "not a member of this group")
			return
		}
	}

	created, err := devicestore.New(h.DB).Create(ctx, models.Device{
		DeviceID:    req.DeviceID,
		Name:        req.Name,
		Description: req.Description,
		DeviceType:  req.DeviceType,
		GroupID:     groupID,
		OwnerID:     userID,
	})
	if errors.Is(err, devicestore.ErrDuplicateDeviceID) {
		h.errorJSON(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("device create failed", zap.String("device_id", req.DeviceID), zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "device create failed")
		return
	}

	h.Log.Info("device registered",
		zap.String("device_id", created.DeviceID),
		zap.String("group_id", groupID.Hex()),
		zap.String("owner_id", userID.Hex()))
	h.respondJSON(w, http.StatusCreated, created)
}
