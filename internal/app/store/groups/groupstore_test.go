package groupstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/sensorhub/internal/domain/models"
	"github.com/dalemusser/sensorhub/internal/testutil"
)

func TestCreate_DuplicateNameCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.CreateUser(t, ctx, db, "user")
	store := New(db)

	if _, err := store.Create(ctx, models.Group{Name: "Fleet Ops", CreatedBy: user.ID}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Group{Name: "FLEET OPS", CreatedBy: user.ID}); !errors.Is(err, ErrDuplicateGroupName) {
		t.Errorf("expected ErrDuplicateGroupName for case-variant name, got %v", err)
	}
}

func TestGetByName_FoldsCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.CreateUser(t, ctx, db, "user")
	store := New(db)

	created, err := store.Create(ctx, models.Group{Name: "Fleet Ops", CreatedBy: user.ID})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.GetByName(ctx, "fleet ops")
	if err != nil {
		t.Fatalf("get by name failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected group %s, got %s", created.ID.Hex(), got.ID.Hex())
	}
}

func TestList_SortedByName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.CreateUser(t, ctx, db, "user")
	store := New(db)

	for _, name := range []string{"Zulu", "alpha", "Mike"} {
		if _, err := store.Create(ctx, models.Group{Name: name, CreatedBy: user.ID}); err != nil {
			t.Fatalf("create %q failed: %v", name, err)
		}
	}

	groups, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	want := []string{"alpha", "Mike", "Zulu"}
	for i, g := range groups {
		if g.Name != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], g.Name)
		}
	}
}
