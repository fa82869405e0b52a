// internal/app/features/devices/delete.go
package devices

import (
	"context"
	"net/http"

	"github.com/dalemusser/sensorhub/internal/app/policy/devicepolicy"
	accessstore "github.com/dalemusser/sensorhub/internal/app/store/deviceaccess"
	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	telemetrystore "github.com/dalemusser/sensorhub/internal/app/store/telemetry"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Delete handles DELETE /devices/{deviceID}: removes the device along with
// its grants and stored readings. Managers only.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	device, ok := h.loadDevice(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	dec, err := devicepolicy.ForDevice(ctx, h.DB, userID, device)
	if err != nil {
		h.Log.Error("policy evaluation failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "authorization check failed")
		return
	}
	if !dec.CanManage {
		h.errorJSON(w, http.StatusForbidden, "no permission to delete this device")
		return
	}

	if _, err := accessstore.New(h.DB).DeleteByDevice(ctx, device.ID); err != nil {
		h.Log.Error("grant cleanup failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "delete failed")
		return
	}
	purged, err := telemetrystore.New(h.DB).PurgeByDevice(ctx, device.ID)
	if err != nil {
		h.Log.Error("telemetry cleanup failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "delete failed")
		return
	}
	if _, err := devicestore.New(h.DB).Delete(ctx, device.ID); err != nil {
		h.Log.Error("device delete failed", zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "delete failed")
		return
	}

	h.Log.Info("device deleted",
		zap.String("device", device.DeviceID),
		zap.Int64("readings_purged", purged))
	w.WriteHeader(http.StatusNoContent)
}
