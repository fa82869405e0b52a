// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles.
const (
	MembershipAdmin  = "admin"
	MembershipMember = "member"
)

// GroupMembership is the authoritative join between users and groups.
// Exactly one document per (group_id, user_id); role is a scalar
// ("admin"|"member"). A user may belong to many groups with independent
// roles.
type GroupMembership struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID    primitive.ObjectID `bson:"group_id" json:"group_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role       string             `bson:"role" json:"role"` // "admin" | "member"
	ApprovedBy primitive.ObjectID `bson:"approved_by" json:"approved_by"`
	JoinedAt   time.Time          `bson:"joined_at" json:"joined_at"`
}
