// internal/app/features/devices/list.go
package devices

import (
	"context"
	"net/http"

	"github.com/dalemusser/sensorhub/internal/app/store/queries/devicequeries"
	"github.com/dalemusser/sensorhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// listResponse wraps the visible-device listing.
type listResponse struct {
	Devices []devicequeries.VisibleDevice `json:"devices"`
	Count   int                           `json:"count"`
}

// List handles GET /devices: the devices the caller may at least view,
// annotated with the caller's effective capabilities. Global
// administrators see the whole catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	visible, err := devicequeries.ListVisible(ctx, h.DB, userID)
	if err != nil {
		h.Log.Error("visible device listing failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		h.errorJSON(w, http.StatusInternalServerError, "device listing failed")
		return
	}

	if visible == nil {
		visible = []devicequeries.VisibleDevice{}
	}
	h.respondJSON(w, http.StatusOK, listResponse{Devices: visible, Count: len(visible)})
}
