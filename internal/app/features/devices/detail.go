// internal/app/features/devices/detail.go
package devices

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/sensorhub/internal/app/policy/devicepolicy"
	accessstore "github.com/dalemusser/sensorhub/internal/app/store/deviceaccess"
	telemetrystore "github.com/dalemusser/sensorhub/internal/app/store/telemetry"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// detailResponse is the payload for GET /devices/{deviceID}.
type detailResponse struct {
	Device     models.Device         `json:"device"`
	CanView    bool                  `json:"can_view"`
	CanControl bool                  `json:"can_control"`
	CanManage  bool                  `json:"can_manage"`
	Latest     []models.Reading      `json:"latest,omitempty"` // most recent reading per data type
	Shares     []models.DeviceAccess `json:"shares,omitempty"` // only for managers
}

// Detail handles GET /devices/{deviceID}: device metadata, the caller's
// capabilities, and the latest reading per data type. Grant records are
// included only when the caller can manage the device.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	device, ok := h.loadDevice(w, r)
	if !ok {
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
	if !dec.CanView {
		h.errorJSON(w, http.StatusForbidden, "no permission to view this device")
		return
	}

	resp := detailResponse{
		Device:     device,
		CanView:    dec.CanView,
		CanControl: dec.CanControl,
		CanManage:  dec.CanManage,
	}

	telemetry := telemetrystore.New(h.DB)
	types, err := telemetry.DataTypes(ctx, device.ID)
	if err != nil {
		h.Log.Error("data type listing failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "telemetry lookup failed")
		return
	}
	for _, t := range types {
		reading, err := telemetry.Latest(ctx, device.ID, t)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			h.Log.Error("latest reading lookup failed",
				zap.String("data_type", t), zap.Error(err))
			h.errorJSON(w, http.StatusInternalServerError, "telemetry lookup failed")
			return
		}
		resp.Latest = append(resp.Latest, reading)
	}

	if dec.CanManage {
		shares, err := accessstore.New(h.DB).ListByDevice(ctx, device.ID)
		if err != nil {
			h.Log.Error("share listing failed", zap.Error(err))
			h.errorJSON(w, http.StatusInternalServerError, "share lookup failed")
			return
		}
		resp.Shares = shares
	}

	h.respondJSON(w, http.StatusOK, resp)
}
