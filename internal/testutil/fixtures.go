// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/sensorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var fixtureSeq int

func nextSeq() int {
	fixtureSeq++
	return fixtureSeq
}

// CreateUser inserts a user with the given global role and returns it.
func CreateUser(t *testing.T, ctx context.Context, db *mongo.Database, role string) models.User {
	t.Helper()
	now := time.Now().UTC()
	n := nextSeq()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fmt.Sprintf("Test User %d", n),
		FullNameCI: text.Fold(fmt.Sprintf("Test User %d", n)),
		Email:      fmt.Sprintf("user%d@test.com", n),
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := db.Collection("users").InsertOne(ctx, u); err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
	return u
}

// CreateGroup inserts a group created by the given user and returns it.
func CreateGroup(t *testing.T, ctx context.Context, db *mongo.Database, createdBy primitive.ObjectID) models.Group {
	t.Helper()
	now := time.Now().UTC()
	name := fmt.Sprintf("Test Group %d", nextSeq())
	g := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection("groups").InsertOne(ctx, g); err != nil {
		t.Fatalf("failed to insert test group: %v", err)
	}
	return g
}

// CreateMembership inserts a (group, user) membership with the given role.
func CreateMembership(t *testing.T, ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID, role string) models.GroupMembership {
	t.Helper()
	m := models.GroupMembership{
		ID:         primitive.NewObjectID(),
		GroupID:    groupID,
		UserID:     userID,
		Role:       role,
		ApprovedBy: userID,
		JoinedAt:   time.Now().UTC(),
	}
	if _, err := db.Collection("group_memberships").InsertOne(ctx, m); err != nil {
		t.Fatalf("failed to insert test membership: %v", err)
	}
	return m
}

// CreateDevice inserts a device with the given external id, owner, and
// group, using the temperature sensor type.
func CreateDevice(t *testing.T, ctx context.Context, db *mongo.Database, deviceID string, groupID, ownerID primitive.ObjectID) models.Device {
	t.Helper()
	name := fmt.Sprintf("Test Device %d", nextSeq())
	d := models.Device{
		ID:         primitive.NewObjectID(),
		DeviceID:   deviceID,
		Name:       name,
		NameCI:     text.Fold(name),
		DeviceType: models.DeviceTypeSensor,
		GroupID:    groupID,
		OwnerID:    ownerID,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := db.Collection("devices").InsertOne(ctx, d); err != nil {
		t.Fatalf("failed to insert test device: %v", err)
	}
	return d
}

// CreateReading inserts one reading for a device at the given timestamp.
func CreateReading(t *testing.T, ctx context.Context, db *mongo.Database, deviceID primitive.ObjectID, dataType string, value float64, ts time.Time) models.Reading {
	t.Helper()
	r := models.Reading{
		ID:        primitive.NewObjectID(),
		DeviceID:  deviceID,
		Timestamp: ts.UTC(),
		DataType:  dataType,
		Value:     value,
	}
	if _, err := db.Collection("device_data").InsertOne(ctx, r); err != nil {
		t.Fatalf("failed to insert test reading: %v", err)
	}
	return r
}
