// internal/app/features/devices/readings.go
package devices

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/sensorhub/internal/app/policy/devicepolicy"
	telemetrystore "github.com/dalemusser/sensorhub/internal/app/store/telemetry"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.uber.org/zap"
)

type readingsResponse struct {
	DeviceID string           `json:"device_id"`
	DataType string           `json:"data_type,omitempty"`
	Readings []models.Reading `json:"readings"`
	Count    int              `json:"count"`
}

// Readings handles GET /devices/{deviceID}/readings?type=&limit=: reading
// history newest first, optionally narrowed to one data type. Requires view
// rights on the device.
func (h *Handler) Readings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	device, ok := h.loadDevice(w, r)
	if !ok {
		return
	}

	dataType := r.URL.Query().Get("type")
	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			h.errorJSON(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
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

	readings, err := telemetrystore.New(h.DB).History(ctx, device.ID, dataType, limit)
	if err != nil {
		h.Log.Error("history lookup failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "telemetry lookup failed")
		return
	}

	h.respondJSON(w, http.StatusOK, readingsResponse{
		DeviceID: device.DeviceID,
		DataType: dataType,
		Readings: readings,
		Count:    len(readings),
	})
}
