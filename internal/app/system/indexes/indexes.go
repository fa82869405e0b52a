// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.

The unique indexes here are load-bearing: the stores rely on duplicate-key
errors for (device_id, group), (group, user) membership, and
(device, user) grant uniqueness.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensureGroupMemberships(ctx, db); err != nil {
		problems = append(problems, "group_memberships: "+err.Error())
	}
	if err := ensureDevices(ctx, db); err != nil {
		problems = append(problems, "devices: "+err.Error())
	}
	if err := ensureDeviceAccess(ctx, db); err != nil {
		problems = append(problems, "device_access: "+err.Error())
	}
	if err := ensureDeviceData(ctx, db); err != nil {
		problems = append(problems, "device_data: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("uniq_name_ci").SetUnique(true),
		},
	})
}

func ensureGroupMemberships(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_memberships"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_group_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("by_user"),
		},
	})
}

func ensureDevices(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("devices"), []mongo.IndexModel{
		{
			// The same external identifier may exist in different groups
			// as distinct devices; the pair is what must be unique.
			Keys:    bson.D{{Key: "device_id", Value: 1}, {Key: "group_id", Value: 1}},
			Options: options.Index().SetName("uniq_device_group").SetUnique(true),
		},
		{
			// Ingestion resolves by identifier alone, oldest registration
			// first; this index serves that sorted lookup.
			Keys:    bson.D{{Key: "device_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("resolve_order"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("group_listing"),
		},
	})
}

func ensureDeviceAccess(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("device_access"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "device_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_device_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("by_user"),
		},
	})
}

func ensureDeviceData(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("device_data"), []mongo.IndexModel{
		{
			// Covers Latest and type-filtered History.
			Keys: bson.D{
				{Key: "device_id", Value: 1},
				{Key: "data_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("device_type_ts"),
		},
		{
			// Covers unfiltered History and the purge paths.
			Keys:    bson.D{{Key: "device_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("device_ts"),
		},
	})
}

// ensureIndexSet creates the desired indexes on one collection.
// CreateMany is a no-op for indexes that already exist with the same
// keys and options; a conflicting definition surfaces as an error so
// startup fails fast instead of running against the wrong schema.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	start := time.Now()
	names, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	zap.L().Info("ensured indexes",
		zap.String("collection", coll.Name()),
		zap.Strings("indexes", names),
		zap.String("took", time.Since(start).String()))
	return nil
}
