// internal/domain/models/reading.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reading is one timestamped (kind, value, unit) observation for a device.
//
// Readings are append-only: created only by the ingestion path, never
// mutated, and deleted only by bulk administrative purge. Retrieval is
// ordered by timestamp descending, not by insertion order.
//
// Unit is free text. For the "location" data type the human-readable
// place name is carried in Unit rather than Value.
type Reading struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DeviceID  primitive.ObjectID `bson:"device_id" json:"device_id"` // devices._id
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"` // UTC
	DataType  string             `bson:"data_type" json:"data_type"` // temperature, humidity, motion, ...
	Value     float64            `bson:"value" json:"value"`
	Unit      string             `bson:"unit" json:"unit"`
}
