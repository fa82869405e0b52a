// internal/app/store/telemetry/telemetrystore.go
package telemetrystore

import (
	"context"
	"time"

	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the append-only home of telemetry readings. Readings are
// created only by the ingestion path and removed only by the purge
// operations below. Concurrent Insert calls from different connections
// are safe; each reading is a single-document insert with no shared
// state beyond what the driver synchronizes.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("device_data")}
}

// Insert appends one reading. The caller supplies the timestamp (already
// normalized to UTC by the ingestion handler).
func (s *Store) Insert(ctx context.Context, r models.Reading) error {
	r.ID = primitive.NewObjectID()
	r.Timestamp = r.Timestamp.UTC()
	_, err := s.c.InsertOne(ctx, r)
	return err
}

// Latest returns the most recent reading of one data type for a device,
// or mongo.ErrNoDocuments.
func (s *Store) Latest(ctx context.Context, deviceID primitive.ObjectID, dataType string) (models.Reading, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var r models.Reading
	err := s.c.FindOne(ctx, bson.M{"device_id": deviceID, "data_type": dataType}, opts).Decode(&r)
	if err != nil {
		return models.Reading{}, err
	}
	return r, nil
}

// History returns readings for a device ordered by timestamp descending.
// dataType "" means all types. limit caps the result; 0 means the
// defaultHistoryLimit.
func (s *Store) History(ctx context.Context, deviceID primitive.ObjectID, dataType string, limit int64) ([]models.Reading, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	filter := bson.M{"device_id": deviceID}
	if dataType != "" {
		filter["data_type"] = dataType
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Reading
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

const defaultHistoryLimit = 100

// DataTypes returns the distinct reading kinds seen for a device.
func (s *Store) DataTypes(ctx context.Context, deviceID primitive.ObjectID) ([]string, error) {
	vals, err := s.c.Distinct(ctx, "data_type", bson.M{"device_id": deviceID})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if t, ok := v.(string); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// CountByDevice returns the number of readings stored for a device.
func (s *Store) CountByDevice(ctx context.Context, deviceID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"device_id": deviceID})
}

// CountSince returns the number of readings stored after the given time,
// across all devices. Used for activity summaries.
func (s *Store) CountSince(ctx context.Context, t time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"timestamp": bson.M{"$gte": t.UTC()}})
}

/* -------------------------------------------------------------------- */
/* Administrative purge                                                 */
/* -------------------------------------------------------------------- */

// PurgeAll removes every reading. Returns the number deleted.
func (s *Store) PurgeAll(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// PurgeByDevice removes all readings of one device.
func (s *Store) PurgeByDevice(ctx context.Context, deviceID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"device_id": deviceID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// PurgeByDevices removes all readings of the given devices. The caller
// resolves a group to its device IDs (see devicestore.IDsByGroup) so that
// a group-scoped purge is one DeleteMany.
func (s *Store) PurgeByDevices(ctx context.Context, deviceIDs []primitive.ObjectID) (int64, error) {
	if len(deviceIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"device_id": bson.M{"$in": deviceIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
