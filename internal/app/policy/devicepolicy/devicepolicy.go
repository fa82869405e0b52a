// internal/app/policy/devicepolicy.go
package devicepolicy

import (
	"context"
	"errors"

	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Decision is the effective capability set for one (user, device) pair.
type Decision struct {
	CanView    bool
	CanControl bool
	CanManage  bool // edit/delete/share the device
}

// Subject gathers the facts Decide needs about one (user, device) pair.
// Callers assemble it from the catalog and access stores (or fixtures in
// tests) so the rule evaluation itself stays pure.
type Subject struct {
	IsGlobalAdmin  bool
	IsOwner        bool
	MembershipRole string // "" (non-member) | "admin" | "member"
	GrantLevel     string // "" (no grant)  | "admin" | "reader"
}

// Decide evaluates the access rules in precedence order, first match wins:
//
//  1. A global administrator has full view/control over every device.
//  2. The device's owner has full view/control over that device.
//  3. A group-admin membership in the device's group grants full
//     view/control over every device in the group.
//  4. An explicit grant of level "admin" grants control (and implies
//     view); level "reader" grants view only, never control.
//  5. Absence of all the above denies both.
func Decide(s Subject) Decision {
	if s.IsGlobalAdmin {
		return Decision{CanView: true, CanControl: true, CanManage: true}
	}
	if s.IsOwner {
		return Decision{CanView: true, CanControl: true, CanManage: true}
	}
	if s.MembershipRole == models.MembershipAdmin {
		return Decision{CanView: true, CanControl: true, CanManage: true}
	}
	switch s.GrantLevel {
	case models.PermissionAdmin:
		return Decision{CanView: true, CanControl: true}
	case models.PermissionReader:
		return Decision{CanView: true}
	}
	return Decision{}
}

// ForDevice assembles the Subject for (userID, device) from the
// authoritative collections and evaluates Decide. Returns an error only
// on database failure so callers can distinguish "denied" from "could
// not check".
func ForDevice(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, device models.Device) (Decision, error) {
	s := Subject{IsOwner: device.OwnerID == userID}

	admin, err := isGlobalAdmin(ctx, db, userID)
	if err != nil {
		return Decision{}, err
	}
	s.IsGlobalAdmin = admin

	// Short-circuit: rules 1 and 2 do not need the membership or grant.
	if s.IsGlobalAdmin || s.IsOwner {
		return Decide(s), nil
	}

	var m models.GroupMembership
	err = db.Collection("group_memberships").
		FindOne(ctx, bson.M{"group_id": device.GroupID, "user_id": userID}).
		Decode(&m)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return Decision{}, err
	}
	s.MembershipRole = m.Role

	var a models.DeviceAccess
	err = db.Collection("device_access").
		FindOne(ctx, bson.M{"device_id": device.ID, "user_id": userID}).
		Decode(&a)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return Decision{}, err
	}
	s.GrantLevel = a.Permission

	return Decide(s), nil
}

// IsGroupAdmin reports whether the user holds an admin-role membership in
// the group, per the authoritative group_memberships collection.
func IsGroupAdmin(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("group_memberships").CountDocuments(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
		"role":     models.MembershipAdmin,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func isGlobalAdmin(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (bool, error) {
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{
		"_id":    userID,
		"role":   "admin",
		"status": "active",
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
