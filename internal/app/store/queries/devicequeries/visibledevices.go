// Package devicequeries provides read-only queries that combine the
// device catalog with access-rule evaluation for the facade.
package devicequeries

import (
	"context"

	"github.com/dalemusser/sensorhub/internal/app/policy/devicepolicy"
	accessstore "github.com/dalemusser/sensorhub/internal/app/store/deviceaccess"
	devicestore "github.com/dalemusser/sensorhub/internal/app/store/devices"
	membershipstore "github.com/dalemusser/sensorhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/sensorhub/internal/app/store/users"
	"github.com/dalemusser/sensorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// VisibleDevice is one catalog entry annotated with the caller's
// effective capabilities.
type VisibleDevice struct {
	models.Device
	IsOwner    bool   `json:"is_owner"`
	Permission string `json:"permission,omitempty"` // explicit grant level, if any
	CanView    bool   `json:"can_view"`
	CanControl bool   `json:"can_control"`
	CanManage  bool   `json:"can_manage"`
}

// ListVisible returns the devices the user may at least view, annotated
// with capabilities. Global administrators see the whole catalog; other
// users see the devices of their groups, filtered by rule evaluation.
//
// The filter applies devicepolicy.Decide per candidate rather than a
// materialized permission table, so the rule logic lives in exactly one
// place.
func ListVisible(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]VisibleDevice, error) {
	users := userstore.New(db)
	devices := devicestore.New(db)
	memberships := membershipstore.New(db)
	access := accessstore.New(db)

	isAdmin, err := users.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}

	var candidates []models.Device
	var roleByGroup map[primitive.ObjectID]string

	if isAdmin {
		candidates, err = devices.ListAll(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		ms, err := memberships.GroupIDsForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(ms) == 0 {
			return nil, nil
		}
		candidates, err = devices.ListByGroups(ctx, ms)
		if err != nil {
			return nil, err
		}
		roleByGroup = make(map[primitive.ObjectID]string, len(ms))
		for _, gid := range ms {
			role, err := memberships.Role(ctx, gid, userID)
			if err != nil {
				return nil, err
			}
			roleByGroup[gid] = role
		}
	}

	ids := make([]primitive.ObjectID, len(candidates))
	for i, d := range candidates {
		ids[i] = d.ID
	}
	grants, err := access.PermissionsForUser(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]VisibleDevice, 0, len(candidates))
	for _, d := range candidates {
		subject := devicepolicy.Subject{
			IsGlobalAdmin:  isAdmin,
			IsOwner:        d.OwnerID == userID,
			MembershipRole: roleByGroup[d.GroupID],
			GrantLevel:     grants[d.ID],
		}
		dec := devicepolicy.Decide(subject)
		if !dec.CanView {
			continue
		}
		out = append(out, VisibleDevice{
			Device:     d,
			IsOwner:    subject.IsOwner,
			Permission: subject.GrantLevel,
			CanView:    dec.CanView,
			CanControl: dec.CanControl,
			CanManage:  dec.CanManage,
		})
	}
	return out, nil
}
