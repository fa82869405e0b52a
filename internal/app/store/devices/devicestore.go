// internal/app/store/devices/devicestore.go
package devicestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/sensorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicateDeviceID is returned when the (device_id, group) pair already exists.
	ErrDuplicateDeviceID = errors.New("a device with this identifier already exists in the group")

	// ErrNotFound is returned by Resolve when no device carries the identifier.
	ErrNotFound = errors.New("device not found")

	errBadDeviceType = errors.New("unknown device type")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("devices")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Device, error) {
	var d models.Device
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Device{}, err
	}
	return d, nil
}

func (s *Store) Create(ctx context.Context, d models.Device) (models.Device, error) {
	if !models.ValidDeviceType(d.DeviceType) {
		return models.Device{}, errBadDeviceType
	}
	d.ID = primitive.NewObjectID()
	d.NameCI = text.Fold(d.Name)
	d.IsActive = true
	d.CreatedAt = time.Now().UTC()
	d.LastSeen = nil
	_, err := s.c.InsertOne(ctx, d)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Device{}, ErrDuplicateDeviceID
		}
		return models.Device{}, err
	}
	return d, nil
}

// Resolve maps an external device identifier to its device record.
//
// The identifier is only unique per group, and the ingestion path has no
// group context, so a system-wide lookup can be ambiguous. Resolution is
// deterministic: the oldest registration wins (created_at ascending,
// then _id ascending). Operators who reuse identifiers across groups
// get this documented rule rather than an arbitrary pick.
//
// Returns ErrNotFound if no device carries the identifier.
func (s *Store) Resolve(ctx context.Context, deviceID string) (models.Device, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	var d models.Device
	err := s.c.FindOne(ctx, bson.M{"device_id": deviceID}, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Device{}, ErrNotFound
	}
	if err != nil {
		return models.Device{}, err
	}
	return d, nil
}

// Touch sets the device's last_seen to the given time. Concurrent touches
// are last-write-wins; last_seen is a monitoring hint, not a
// correctness-critical value.
func (s *Store) Touch(ctx context.Context, id primitive.ObjectID, t time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_seen": t.UTC()}})
	return err
}

// UpdateInfo updates mutable device metadata.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, desc, deviceType string, isActive bool) error {
	if deviceType != "" && !models.ValidDeviceType(deviceType) {
		return errBadDeviceType
	}
	set := bson.M{
		"description": desc,
		"is_active":   isActive,
	}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if deviceType != "" {
		set["device_type"] = deviceType
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Delete removes a device by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByGroup returns the devices of one group ordered by name.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Device, error) {
	return s.list(ctx, bson.M{"group_id": groupID})
}

// ListByGroups returns the devices of any of the given groups, ordered by name.
func (s *Store) ListByGroups(ctx context.Context, groupIDs []primitive.ObjectID) ([]models.Device, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	return s.list(ctx, bson.M{"group_id": bson.M{"$in": groupIDs}})
}

// ListAll returns every device, ordered by name. Admin-only callers.
func (s *Store) ListAll(ctx context.Context) ([]models.Device, error) {
	return s.list(ctx, bson.M{})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Device, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Device
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDsByGroup returns the ObjectIDs of all devices in a group. Used by the
// telemetry store's group-scoped purge.
func (s *Store) IDsByGroup(ctx context.Context, groupID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var d struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		ids = append(ids, d.ID)
	}
	return ids, cur.Err()
}

// CountByGroup returns the number of devices in a group.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}

// DeleteByGroup removes all devices belonging to a group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
