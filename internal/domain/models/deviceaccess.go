// internal/domain/models/deviceaccess.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Device access permission levels.
const (
	PermissionAdmin  = "admin"  // control and view
	PermissionReader = "reader" // view only
)

// DeviceAccess is an explicit per-user, per-device grant layered on top
// of group membership. Exactly one document per (device_id, user_id).
//
// Write-time invariant: the granted user must already hold a membership
// in the device's group; the access store rejects grants to non-members.
type DeviceAccess struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DeviceID   primitive.ObjectID `bson:"device_id" json:"device_id"` // devices._id, not the external identifier
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Permission string             `bson:"permission" json:"permission"` // "admin" | "reader"
	GrantedBy  primitive.ObjectID `bson:"granted_by" json:"granted_by"`
	GrantedAt  time.Time          `bson:"granted_at" json:"granted_at"`
}
