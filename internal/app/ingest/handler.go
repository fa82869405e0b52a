// internal/app/ingest/handler.go
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DeviceCatalog is the lookup/touch surface the handler needs from the
// device store. It is injected at construction (never ambient state) so
// tests can substitute an in-memory catalog.
type DeviceCatalog interface {
	// Resolve maps an external device identifier to its record, returning
	// devicestore.ErrNotFound when the identifier is not registered.
	Resolve(ctx context.Context, deviceID string) (models.Device, error)
	// Touch sets the device's last-seen time; last-write-wins.
	Touch(ctx context.Context, id primitive.ObjectID, t time.Time) error
}

// ReadingWriter appends readings to the telemetry store.
type ReadingWriter interface {
	Insert(ctx context.Context, r models.Reading) error
}

// Handler turns one raw message payload into zero or more stored
// readings plus one acknowledgment. It never panics and never returns an
// error: every failure mode maps to a Response.
type Handler struct {
	catalog  DeviceCatalog
	readings ReadingWriter
	log      *zap.Logger

	// now is the server clock; replaced in tests.
	now func() time.Time
}

// NewHandler constructs a Handler over the given catalog and store.
func NewHandler(catalog DeviceCatalog, readings ReadingWriter, logger *zap.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		readings: readings,
		log:      logger,
		now:      time.Now,
	}
}

// Process handles one inbound payload. Validation and resolution happen
// in a fixed order before any storage side effect:
//
//  1. parse the payload (malformed JSON stores nothing),
//  2. require device_id and data,
//  3. resolve the device against the catalog,
//  4. determine the reading timestamp (client timestamp normalized to
//     UTC, server time as fallback),
//  5. store each well-formed element, collecting per-element errors,
//  6. touch the device's last-seen with the current server time.
//
// All readings in one message share the same timestamp.
func (h *Handler) Process(ctx context.Context, payload []byte) Response {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Response{
			Status:  StatusError,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
		}
	}

	if msg.DeviceID == "" || msg.Data == nil {
		return Response{
			Status:  StatusError,
			Message: "missing required fields: device_id or data",
		}
	}

	device, err := h.catalog.Resolve(ctx, msg.DeviceID)
	if errors.Is(err, devicestore.ErrNotFound) {
		return Response{
			Status:  StatusError,
			Message: fmt.Sprintf("device with ID %q not found", msg.DeviceID),
		}
	}
	if err != nil {
		h.log.Error("device resolution failed",
			zap.String("device_id", msg.DeviceID),
			zap.Error(err))
		return Response{
			Status:  StatusError,
			Message: "internal error resolving device",
		}
	}

	timestamp := h.readingTimestamp(msg)

	stored := 0
	var elemErrs []string
	for _, el := range msg.Data {
		if el.Type == "" || el.Value == nil {
			elemErrs = append(elemErrs, "missing 'type' or 'value' in data entry")
			continue
		}
		value, err := coerceValue(el.Value)
		if err != nil {
			elemErrs = append(elemErrs, fmt.Sprintf("invalid value for %s: %v", el.Type, err))
			continue
		}
		reading := models.Reading{
			DeviceID:  device.ID,
			Timestamp: timestamp,
			DataType:  el.Type,
			Value:     value,
			Unit:      el.Unit,
		}
		if err := h.readings.Insert(ctx, reading); err != nil {
			h.log.Error("reading insert failed",
				zap.String("device_id", msg.DeviceID),
				zap.String("data_type", el.Type),
				zap.Error(err))
			elemErrs = append(elemErrs, fmt.Sprintf("storage error for %s", el.Type))
			continue
		}
		stored++
	}

	// Last-seen reflects when the server processed the message, not the
	// (possibly client-supplied) reading timestamp.
	if err := h.catalog.Touch(ctx, device.ID, h.now()); err != nil {
		h.log.Warn("last-seen update failed",
			zap.String("device_id", msg.DeviceID),
			zap.Error(err))
	}

	resp := Response{
		Message:     fmt.Sprintf("stored %d readings for device %s", stored, msg.DeviceID),
		StoredCount: stored,
		DeviceName:  device.Name,
		Errors:      elemErrs,
	}
	switch {
	case stored > 0 && len(elemErrs) == 0:
		resp.Status = StatusSuccess
	case stored > 0:
		resp.Status = StatusPartial
	default:
		resp.Status = StatusError
		resp.Message = fmt.Sprintf("no readings stored for device %s", msg.DeviceID)
	}

	h.log.Info("message processed",
		zap.String("device_id", msg.DeviceID),
		zap.String("device_name", device.Name),
		zap.String("status", resp.Status),
		zap.Int("stored", stored),
		zap.Int("element_errors", len(elemErrs)))

	return resp
}

// readingTimestamp determines the single timestamp shared by every
// reading in the message. A client timestamp must carry timezone
// information (RFC 3339); it is normalized to UTC. A timestamp that
// fails to parse falls back to server time with a warning — non-fatal.
func (h *Handler) readingTimestamp(msg Message) time.Time {
	if msg.Timestamp == "" {
		return h.now().UTC()
	}
	t, err := time.Parse(time.RFC3339, msg.Timestamp)
	if err != nil {
		h.log.Warn("unparseable client timestamp, using server time",
			zap.String("device_id", msg.DeviceID),
			zap.String("timestamp", msg.Timestamp),
			zap.Error(err))
		return h.now().UTC()
	}
	return t.UTC()
}
