package ingest

import (
	"testing"
	"time"

	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	telemetrystore "github.com/dalemusser/sensorhub/internal/app/store/telemetry"
	"github.com/dalemusser/sensorhub/internal/testutil"
	"go.uber.org/zap"
)

// End to end against real stores: a message with no timestamp stores one
// reading at server time and the latest-reading query returns it.
func TestIngestThenQueryLatest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, ctx, db, "user")
	group := testutil.CreateGroup(t, ctx, db, owner.ID)
	device := testutil.CreateDevice(t, ctx, db, "T01", group.ID, owner.ID)

	telemetry := telemetrystore.New(db)
	h := NewHandler(devicestore.New(db), telemetry, zap.NewNop())

	before := time.Now().UTC()
	resp := h.Process(ctx, []byte(`{"device_id":"T01","data":[{"type":"temperature","value":23.5,"unit":"°C"}]}`))
	after := time.Now().UTC()

	if resp.Status != StatusSuccess {
		t.Fatalf("expected status %q, got %q (%s)", StatusSuccess, resp.Status, resp.Message)
	}
	if resp.StoredCount != 1 {
		t.Fatalf("expected 1 stored, got %d", resp.StoredCount)
	}

	latest, err := telemetry.Latest(ctx, device.ID, "temperature")
	if err != nil {
		t.Fatalf("latest query failed: %v", err)
	}
	if latest.Value != 23.5 {
		t.Errorf("expected latest value 23.5, got %v", latest.Value)
	}
	if latest.Unit != "°C" {
		t.Errorf("expected unit °C, got %q", latest.Unit)
	}
	// Mongo stores millisecond precision; allow a little slack around the
	// observed window.
	if latest.Timestamp.Before(before.Add(-time.Second)) || latest.Timestamp.After(after.Add(time.Second)) {
		t.Errorf("expected timestamp near now, got %s (window %s..%s)", latest.Timestamp, before, after)
	}

	// The side effect: last-seen was set with server time.
	got, err := devicestore.New(db).GetByID(ctx, device.ID)
	if err != nil {
		t.Fatalf("device reload failed: %v", err)
	}
	if got.LastSeen == nil {
		t.Error("expected last-seen to be set after ingestion")
	}
}
