package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeCatalog is an in-memory DeviceCatalog keyed by external device id.
type fakeCatalog struct {
	mu      sync.Mutex
	devices map[string]models.Device
	touches []time.Time
}

func newFakeCatalog(devices ...models.Device) *fakeCatalog {
	m := make(map[string]models.Device)
	for _, d := range devices {
		m[d.DeviceID] = d
	}
	return &fakeCatalog{devices: m}
}

func (f *fakeCatalog) Resolve(ctx context.Context, deviceID string) (models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[deviceID]
	if !ok {
		return models.Device{}, devicestore.ErrNotFound
	}
	return d, nil
}

func (f *fakeCatalog) Touch(ctx context.Context, id primitive.ObjectID, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches = append(f.touches, t)
	return nil
}

// fakeWriter records inserted readings; data types listed in fail are
// rejected with an error.
type fakeWriter struct {
	mu       sync.Mutex
	readings []models.Reading
	fail     map[string]bool
}

func (f *fakeWriter) Insert(ctx context.Context, r models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[r.DataType] {
		return errors.New("simulated storage failure")
	}
	f.readings = append(f.readings, r)
	return nil
}

func (f *fakeWriter) stored() []models.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Reading, len(f.readings))
	copy(out, f.readings)
	return out
}

func testDevice(id string) models.Device {
	return models.Device{
		ID:       primitive.NewObjectID(),
		DeviceID: id,
		Name:     "Test " + id,
	}
}

func mustPayload(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return b
}

func TestProcess_AllElementsStored(t *testing.T) {
	device := testDevice("T01")
	catalog := newFakeCatalog(device)
	writer := &fakeWriter{}
	h := NewHandler(catalog, writer, zap.NewNop())

	payload := mustPayload(t, Message{
		DeviceID:  "T01",
		Timestamp: "2025-03-01T12:00:00+00:00",
		Data: []Element{
			{Type: "temperature", Value: 23.4, Unit: "°C"},
			{Type: "humidity", Value: 51.0, Unit: "%"},
		},
	})

	resp := h.Process(context.Background(), payload)

	if resp.Status != StatusSuccess {
		t.Errorf("expected status %q, got %q (%s)", StatusSuccess, resp.Status, resp.Message)
	}
	if resp.StoredCount != 2 {
		t.Errorf("expected 2 stored, got %d", resp.StoredCount)
	}
	if resp.DeviceName != device.Name {
		t.Errorf("expected device name %q, got %q", device.Name, resp.DeviceName)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("expected no element errors, got %v", resp.Errors)
	}

	stored := writer.stored()
	if len(stored) != 2 {
		t.Fatalf("expected 2 readings in store, got %d", len(stored))
	}
	for _, r := range stored {
		if r.DeviceID != device.ID {
			t.Errorf("reading stored with device %s, want %s", r.DeviceID.Hex(), device.ID.Hex())
		}
	}
}

func TestProcess_PartialSuccess(t *testing.T) {
	device := testDevice("T01")
	h := NewHandler(newFakeCatalog(device), &fakeWriter{}, zap.NewNop())

	payload := mustPayload(t, Message{
		DeviceID: "T01",
		Data: []Element{
			{Type: "temperature", Value: 23.4},
			{Type: "", Value: 1.0},              // missing type
			{Type: "humidity", Value: "fifty"},  // non-numeric value
			{Type: "pressure", Value: "1013.2"}, // numeric string coerces
		},
	})

	resp := h.Process(context.Background(), payload)

	if resp.Status != StatusPartial {
		t.Errorf("expected status %q, got %q", StatusPartial, resp.Status)
	}
	if resp.StoredCount != 2 {
		t.Errorf("expected 2 stored, got %d", resp.StoredCount)
	}
	if len(resp.Errors) != 2 {
		t.Errorf("expected 2 element errors, got %v", resp.Errors)
	}
}

func TestProcess_NoReadingsStored(t *testing.T) {
	device := testDevice("T01")
	h := NewHandler(newFakeCatalog(device), &fakeWriter{}, zap.NewNop())

	payload := mustPayload(t, Message{
		DeviceID: "T01",
		Data: []Element{
			{Type: "temperature", Value: "warm"},
			{Value: 1.0},
		},
	})

	resp := h.Process(context.Background(), payload)

	if resp.Status != StatusError {
		t.Errorf("expected status %q when nothing stored, got %q", StatusError, resp.Status)
	}
	if resp.StoredCount != 0 {
		t.Errorf("expected 0 stored, got %d", resp.StoredCount)
	}
	if len(resp.Errors) != 2 {
		t.Errorf("expected 2 element errors, got %v", resp.Errors)
	}
}

func TestProcess_StorageFailureIsPerElement(t *testing.T) {
	device := testDevice("T01")
	writer := &fakeWriter{fail: map[string]bool{"humidity": true}}
	h := NewHandler(newFakeCatalog(device), writer, zap.NewNop())

	payload := mustPayload(t, Message{
		DeviceID: "T01",
		Data: []Element{
			{Type: "temperature", Value: 20.0},
			{Type: "humidity", Value: 50.0},
		},
	})

	resp := h.Process(context.Background(), payload)

	if resp.Status != StatusPartial {
		t.Errorf("expected status %q, got %q", StatusPartial, resp.Status)
	}
	if resp.StoredCount != 1 {
		t.Errorf("expected 1 stored, got %d", resp.StoredCount)
	}
}

func TestProcess_UnknownDevice(t *testing.T) {
	writer := &fakeWriter{}
	h := NewHandler(newFakeCatalog(), writer, zap.NewNop())

	payload := mustPayload(t, Message{
		DeviceID: "NOPE",
		Data:     []Element{{Type: "temperature", Value: 20.0}},
	})

	resp := h.Process(context.Background(), payload)

	if resp.Status != StatusError {
		t.Errorf("expected status %q, got %q", StatusError, resp.Status)
	}
	if len(writer.stored()) != 0 {
		t.Error("expected nothing stored for an unregistered device")
	}
}

func TestProcess_MalformedJSON(t *testing.T) {
	h := NewHandler(newFakeCatalog(), &fakeWriter{}, zap.NewNop())

	resp := h.Process(context.Background(), []byte(`{"device_id": "T01",`))

	if resp.Status != StatusError {
		t.Errorf("expected status %q, got %q", StatusError, resp.Status)
	}
}

func TestProcess_MissingRequiredFields(t *testing.T) {
	h := NewHandler(newFakeCatalog(testDevice("T01")), &fakeWriter{}, zap.NewNop())

	cases := []struct {
		name    string
		payload string
	}{
		{"no device_id", `{"data": [{"type": "temperature", "value": 20}]}`},
		{"no data", `{"device_id": "T01"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := h.Process(context.Background(), []byte(tc.payload))
			if resp.Status != StatusError {
				t.Errorf("expected status %q, got %q", StatusError, resp.Status)
			}
		})
	}
}

func TestProcess_EmptyDataArrayIsError(t *testing.T) {
	h := NewHandler(newFakeCatalog(testDevice("T01")), &fakeWriter{}, zap.NewNop())

	resp := h.Process(context.Background(), []byte(`{"device_id": "T01", "data": []}`))

	if resp.Status != StatusError {
		t.Errorf("expected status %q for empty data, got %q", StatusError, resp.Status)
	}
	if resp.StoredCount != 0 {
		t.Errorf("expected 0 stored, got %d", resp.StoredCount)
	}
}

func TestProcess_TimestampNormalizedToUTC(t *testing.T) {
	device := testDevice("T01")
	writer := &fakeWriter{}
	h := NewHandler(newFakeCatalog(device), writer, zap.NewNop())

	// The same instant expressed in two offsets must store identically.
	for _, ts := range []string{"2025-03-01T08:00:00-04:00", "2025-03-01T12:00:00+00:00"} {
		payload := mustPayload(t, Message{
			DeviceID:  "T01",
			Timestamp: ts,
			Data:      []Element{{Type: "temperature", Value: 20.0}},
		})
		if resp := h.Process(context.Background(), payload); resp.Status != StatusSuccess {
			t.Fatalf("unexpected status %q for timestamp %s", resp.Status, ts)
		}
	}

	stored := writer.stored()
	if len(stored) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(stored))
	}
	want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, r := range stored {
		if !r.Timestamp.Equal(want) {
			t.Errorf("expected timestamp %s, got %s", want, r.Timestamp)
		}
		if r.Timestamp.Location() != time.UTC {
			t.Errorf("expected UTC location, got %s", r.Timestamp.Location())
		}
	}
}

func TestProcess_MissingTimestampUsesServerTime(t *testing.T) {
	device := testDevice("T01")
	writer := &fakeWriter{}
	h := NewHandler(newFakeCatalog(device), writer, zap.NewNop())

	serverNow := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return serverNow }

	payload := mustPayload(t, Message{
		DeviceID: "T01",
		Data:     []Element{{Type: "temperature", Value: 20.0}},
	})
	if resp := h.Process(context.Background(), payload); resp.Status != StatusSuccess {
		t.Fatalf("unexpected status %q", resp.Status)
	}

	stored := writer.stored()
	if len(stored) != 1 || !stored[0].Timestamp.Equal(serverNow) {
		t.Errorf("expected server time %s, got %v", serverNow, stored)
	}
}

func TestProcess_UnparseableTimestampFallsBack(t *testing.T) {
	device := testDevice("T01")
	writer := &fakeWriter{}
	h := NewHandler(newFakeCatalog(device), writer, zap.NewNop())

	serverNow := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return serverNow }

	payload := mustPayload(t, Message{
		DeviceID:  "T01",
		Timestamp: "yesterday around noon",
		Data:      []Element{{Type: "temperature", Value: 20.0}},
	})
	resp := h.Process(context.Background(), payload)

	// A bad timestamp is non-fatal: the reading still stores at server time.
	if resp.Status != StatusSuccess {
		t.Errorf("expected status %q, got %q", StatusSuccess, resp.Status)
	}
	stored := writer.stored()
	if len(stored) != 1 || !stored[0].Timestamp.Equal(serverNow) {
		t.Errorf("expected fallback to server time %s, got %v", serverNow, stored)
	}
}

func TestProcess_TouchUsesServerTimeNotClientTimestamp(t *testing.T) {
	device := testDevice("T01")
	catalog := newFakeCatalog(device)
	h := NewHandler(catalog, &fakeWriter{}, zap.NewNop())

	serverNow := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return serverNow }

	payload := mustPayload(t, Message{
		DeviceID:  "T01",
		Timestamp: "2020-01-01T00:00:00+00:00", // stale client clock
		Data:      []Element{{Type: "temperature", Value: 20.0}},
	})
	h.Process(context.Background(), payload)

	if len(catalog.touches) != 1 {
		t.Fatalf("expected one last-seen update, got %d", len(catalog.touches))
	}
	if !catalog.touches[0].Equal(serverNow) {
		t.Errorf("expected last-seen %s, got %s", serverNow, catalog.touches[0])
	}
}

func TestProcess_LocationPlaceNameInUnit(t *testing.T) {
	device := testDevice("OALLM220")
	writer := &fakeWriter{}
	h := NewHandler(newFakeCatalog(device), writer, zap.NewNop())

	payload := mustPayload(t, Message{
		DeviceID: "OALLM220",
		Data: []Element{
			{Type: "location", Value: 0.0, Unit: "Downtown Parking"},
		},
	})
	if resp := h.Process(context.Background(), payload); resp.Status != StatusSuccess {
		t.Fatalf("unexpected status %q", resp.Status)
	}

	stored := writer.stored()
	if len(stored) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(stored))
	}
	if stored[0].Unit != "Downtown Parking" {
		t.Errorf("expected place name preserved in unit, got %q", stored[0].Unit)
	}
	if stored[0].Value != 0 {
		t.Errorf("expected placeholder value 0, got %v", stored[0].Value)
	}
}
