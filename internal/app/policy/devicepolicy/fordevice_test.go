package devicepolicy

import (
	"testing"

	accessstore "github.com/dalemusser/sensorhub/internal/app/store/deviceaccess"
	"github.com/dalemusser/sensorhub/internal/domain/models"
	"github.com/dalemusser/sensorhub/internal/testutil"
)

func TestForDevice_AssemblesSubjectFromCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := testutil.CreateUser(t, ctx, db, "admin")
	owner := testutil.CreateUser(t, ctx, db, "user")
	member := testutil.CreateUser(t, ctx, db, "user")
	outsider := testutil.CreateUser(t, ctx, db, "user")

	group := testutil.CreateGroup(t, ctx, db, owner.ID)
	testutil.CreateMembership(t, ctx, db, group.ID, owner.ID, models.MembershipAdmin)
	testutil.CreateMembership(t, ctx, db, group.ID, member.ID, models.MembershipMember)

	device := testutil.CreateDevice(t, ctx, db, "T01", group.ID, owner.ID)

	// Global admin: full rights without membership.
	dec, err := ForDevice(ctx, db, admin.ID, device)
	if err != nil {
		t.Fatalf("ForDevice failed for admin: %v", err)
	}
	if !dec.CanView || !dec.CanControl || !dec.CanManage {
		t.Errorf("expected full rights for global admin, got %+v", dec)
	}

	// Plain member without a grant: denied.
	dec, err = ForDevice(ctx, db, member.ID, device)
	if err != nil {
		t.Fatalf("ForDevice failed for member: %v", err)
	}
	if dec.CanView || dec.CanControl {
		t.Errorf("expected denial for ungranted member, got %+v", dec)
	}

	// Reader grant: view only.
	if err := accessstore.New(db).Grant(ctx, device.ID, member.ID, owner.ID, models.PermissionReader); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	dec, err = ForDevice(ctx, db, member.ID, device)
	if err != nil {
		t.Fatalf("ForDevice failed after grant: %v", err)
	}
	if !dec.CanView || dec.CanControl || dec.CanManage {
		t.Errorf("expected view-only for reader grant, got %+v", dec)
	}

	// Outsider: denied.
	dec, err = ForDevice(ctx, db, outsider.ID, device)
	if err != nil {
		t.Fatalf("ForDevice failed for outsider: %v", err)
	}
	if dec.CanView {
		t.Errorf("expected denial for outsider, got %+v", dec)
	}
}

func TestIsGroupAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.CreateUser(t, ctx, db, "user")
	other := testutil.CreateUser(t, ctx, db, "user")
	group := testutil.CreateGroup(t, ctx, db, user.ID)
	testutil.CreateMembership(t, ctx, db, group.ID, user.ID, models.MembershipAdmin)
	testutil.CreateMembership(t, ctx, db, group.ID, other.ID, models.MembershipMember)

	isAdmin, err := IsGroupAdmin(ctx, db, group.ID, user.ID)
	if err != nil {
		t.Fatalf("IsGroupAdmin failed: %v", err)
	}
	if !isAdmin {
		t.Error("expected admin membership to be recognized")
	}

	isAdmin, err = IsGroupAdmin(ctx, db, group.ID, other.ID)
	if err != nil {
		t.Fatalf("IsGroupAdmin failed: %v", err)
	}
	if isAdmin {
		t.Error("expected member role not to count as group admin")
	}
}
