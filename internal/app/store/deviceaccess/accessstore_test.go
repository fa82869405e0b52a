package accessstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/sensorhub/internal/domain/models"
	"github.com/dalemusser/sensorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestGrant_RequiresGroupMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, ctx, db, "user")
	outsider := testutil.CreateUser(t, ctx, db, "user")
	group := testutil.CreateGroup(t, ctx, db, owner.ID)
	testutil.CreateMembership(t, ctx, db, group.ID, owner.ID, models.MembershipAdmin)
	device := testutil.CreateDevice(t, ctx, db, "T01", group.ID, owner.ID)

	store := New(db)
	err := store.Grant(ctx, device.ID, outsider.ID, owner.ID, models.PermissionReader)
	if !errors.Is(err, ErrNotGroupMember) {
		t.Errorf("expected ErrNotGroupMember, got %v", err)
	}

	// A rejected grant must persist nothing.
	if _, err := store.Get(ctx, device.ID, outsider.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected no grant document after rejection, got %v", err)
	}
}

func TestGrant_UpsertsPermissionLevel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, ctx, db, "user")
	member := testutil.CreateUser(t, ctx, db, "user")
	group := testutil.CreateGroup(t, ctx, db, owner.ID)
	testutil.CreateMembership(t, ctx, db, group.ID, member.ID, models.MembershipMember)
	device := testutil.CreateDevice(t, ctx, db, "T01", group.ID, owner.ID)

	store := New(db)
	if err := store.Grant(ctx, device.ID, member.ID, owner.ID, models.PermissionReader); err != nil {
		t.Fatalf("first grant failed: %v", err)
	}

	// Granting again replaces the level rather than erroring or duplicating.
	if err := store.Grant(ctx, device.ID, member.ID, owner.ID, models.PermissionAdmin); err != nil {
		t.Fatalf("second grant failed: %v", err)
	}

	perm, err := store.Permission(ctx, device.ID, member.ID)
	if err != nil {
		t.Fatalf("permission lookup failed: %v", err)
	}
	if perm != models.PermissionAdmin {
		t.Errorf("expected permission %q, got %q", models.PermissionAdmin, perm)
	}

	list, err := store.ListByDevice(ctx, device.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected exactly one grant document, got %d", len(list))
	}
}

func TestGrant_RejectsUnknownLevel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, ctx, db, "user")
	member := testutil.CreateUser(t, ctx, db, "user")
	group := testutil.CreateGroup(t, ctx, db, owner.ID)
	testutil.CreateMembership(t, ctx, db, group.ID, member.ID, models.MembershipMember)
	device := testutil.CreateDevice(t, ctx, db, "T01", group.ID, owner.ID)

	err := New(db).Grant(ctx, device.ID, member.ID, owner.ID, "owner")
	if !errors.Is(err, ErrBadPermission) {
		t.Errorf("expected ErrBadPermission, got %v", err)
	}
}

func TestRevoke_IsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, ctx, db, "user")
	member := testutil.CreateUser(t, ctx, db, "user")
	group := testutil.CreateGroup(t, ctx, db, owner.ID)
	testutil.CreateMembership(t, ctx, db, group.ID, member.ID, models.MembershipMember)
	device := testutil.CreateDevice(t, ctx, db, "T01", group.ID, owner.ID)

	store := New(db)
	if err := store.Grant(ctx, device.ID, member.ID, owner.ID, models.PermissionReader); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	if err := store.Revoke(ctx, device.ID, member.ID); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	// Revoking again, with nothing to remove, still succeeds.
	if err := store.Revoke(ctx, device.ID, member.ID); err != nil {
		t.Errorf("second revoke failed: %v", err)
	}

	perm, err := store.Permission(ctx, device.ID, member.ID)
	if err != nil {
		t.Fatalf("permission lookup failed: %v", err)
	}
	if perm != "" {
		t.Errorf("expected no permission after revoke, got %q", perm)
	}
}

func TestPermissionsForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.CreateUser(t, ctx, db, "user")
	member := testutil.CreateUser(t, ctx, db, "user")
	group := testutil.CreateGroup(t, ctx, db, owner.ID)
	testutil.CreateMembership(t, ctx, db, group.ID, member.ID, models.MembershipMember)
	d1 := testutil.CreateDevice(t, ctx, db, "T01", group.ID, owner.ID)
	d2 := testutil.CreateDevice(t, ctx, db, "T02", group.ID, owner.ID)

	store := New(db)
	if err := store.Grant(ctx, d1.ID, member.ID, owner.ID, models.PermissionReader); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	perms, err := store.PermissionsForUser(ctx, member.ID, []primitive.ObjectID{d1.ID, d2.ID})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if perms[d1.ID] != models.PermissionReader {
		t.Errorf("expected reader on %s, got %q", d1.ID.Hex(), perms[d1.ID])
	}
	if _, ok := perms[d2.ID]; ok {
		t.Errorf("expected no grant for %s", d2.ID.Hex())
	}
}
