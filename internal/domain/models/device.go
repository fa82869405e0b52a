// internal/domain/models/device.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Device is a registered telemetry-producing or controllable endpoint,
// scoped to one group.
//
// Invariant: (DeviceID, GroupID) is unique. The same external identifier
// may exist in two different groups as distinct devices, which is why
// ingestion-time resolution needs a documented tie-break (see the device
// store's Resolve).
type Device struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	DeviceID    string             `bson:"device_id" json:"device_id"` // external identifier, e.g. "T01"
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description" json:"description"`
	DeviceType  string             `bson:"device_type" json:"device_type"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"group_id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	IsActive    bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	LastSeen  *time.Time `bson:"last_seen,omitempty" json:"last_seen,omitempty"`
}
