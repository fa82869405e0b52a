// internal/app/store/deviceaccess/accessstore.go
package accessstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c           *mongo.Collection
	devices     *mongo.Collection
	memberships *mongo.Collection
}

var (
	// ErrNotGroupMember is the grant constraint violation: a grant may only
	// be created for a user who already holds a membership in the device's
	// group.
	ErrNotGroupMember = errors.New("user must be a member of the device's group")

	// ErrBadPermission rejects any grant level other than the two known
	// permissions.
	ErrBadPermission = errors.New(`permission must be "admin" or "reader"`)
)

func New(db *mongo.Database) *Store {
	return &Store{
		c:           db.Collection("device_access"),
		devices:     db.Collection("devices"),
		memberships: db.Collection("group_memberships"),
	}
}

// Grant creates or updates the (device, user) grant after enforcing the
// membership constraint. A rejected grant persists nothing.
func (s *Store) Grant(ctx context.Context, deviceID, userID, grantedBy primitive.ObjectID, permission string) error {
	if permission != models.PermissionAdmin && permission != models.PermissionReader {
		return ErrBadPermission
	}

	// Load the device to learn its group.
	var d models.Device
	if err := s.devices.FindOne(ctx, bson.M{"_id": deviceID}).Decode(&d); err != nil {
		return err
	}

	// Constraint: grantee must already be in the device's group.
	n, err := s.memberships.CountDocuments(ctx, bson.M{"group_id": d.GroupID, "user_id": userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotGroupMember
	}

	// update_or_create semantics: re-granting updates the level and granter.
	filter := bson.M{"device_id": deviceID, "user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"permission": permission,
			"granted_by": grantedBy,
			"granted_at": time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"device_id": deviceID,
			"user_id":   userID,
		},
	}
	_, err = s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Revoke deletes the (device, user) grant. Revoking a non-existent grant
// is a no-op, not an error.
func (s *Store) Revoke(ctx context.Context, deviceID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"device_id": deviceID, "user_id": userID})
	return err
}

// Get returns the grant for (deviceID, userID), or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, deviceID, userID primitive.ObjectID) (models.DeviceAccess, error) {
	var a models.DeviceAccess
	err := s.c.FindOne(ctx, bson.M{"device_id": deviceID, "user_id": userID}).Decode(&a)
	if err != nil {
		return models.DeviceAccess{}, err
	}
	return a, nil
}

// Permission returns the user's grant level on the device, or "" if no
// grant exists.
func (s *Store) Permission(ctx context.Context, deviceID, userID primitive.ObjectID) (string, error) {
	a, err := s.Get(ctx, deviceID, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return a.Permission, nil
}

// ListByDevice returns all grants on one device.
func (s *Store) ListByDevice(ctx context.Context, deviceID primitive.ObjectID) ([]models.DeviceAccess, error) {
	cur, err := s.c.Find(ctx, bson.M{"device_id": deviceID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.DeviceAccess
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PermissionsForUser returns the user's grant levels keyed by device
// ObjectID, restricted to the given devices. Used to annotate listings
// without one query per device.
func (s *Store) PermissionsForUser(ctx context.Context, userID primitive.ObjectID, deviceIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	if len(deviceIDs) == 0 {
		return map[primitive.ObjectID]string{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{
		"user_id":   userID,
		"device_id": bson.M{"$in": deviceIDs},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]string, len(deviceIDs))
	for cur.Next(ctx) {
		var a models.DeviceAccess
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out[a.DeviceID] = a.Permission
	}
	return out, cur.Err()
}

// DeleteByDevice removes all grants on a device (used when a device is deleted).
func (s *Store) DeleteByDevice(ctx context.Context, deviceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"device_id": deviceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
