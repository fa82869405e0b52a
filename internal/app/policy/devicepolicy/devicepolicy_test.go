package devicepolicy

import (
	"testing"

	"github.com/dalemusser/sensorhub/internal/domain/models"
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name    string
		subject Subject
		want    Decision
	}{
		{
			name:    "global admin sees and controls everything",
			subject: Subject{IsGlobalAdmin: true},
			want:    Decision{CanView: true, CanControl: true, CanManage: true},
		},
		{
			name:    "owner has full rights on own device",
			subject: Subject{IsOwner: true},
			want:    Decision{CanView: true, CanControl: true, CanManage: true},
		},
		{
			name:    "group admin has full rights on group devices",
			subject: Subject{MembershipRole: models.MembershipAdmin},
			want:    Decision{CanView: true, CanControl: true, CanManage: true},
		},
		{
			name:    "admin grant gives control but not manage",
			subject: Subject{MembershipRole: models.MembershipMember, GrantLevel: models.PermissionAdmin},
			want:    Decision{CanView: true, CanControl: true},
		},
		{
			name:    "reader grant gives view only",
			subject: Subject{MembershipRole: models.MembershipMember, GrantLevel: models.PermissionReader},
			want:    Decision{CanView: true},
		},
		{
			name:    "plain member without grant is denied",
			subject: Subject{MembershipRole: models.MembershipMember},
			want:    Decision{},
		},
		{
			name:    "non-member is denied",
			subject: Subject{},
			want:    Decision{},
		},
		{
			name:    "group admin outranks a reader grant",
			subject: Subject{MembershipRole: models.MembershipAdmin, GrantLevel: models.PermissionReader},
			want:    Decision{CanView: true, CanControl: true, CanManage: true},
		},
		{
			name:    "owner outranks everything below",
			subject: Subject{IsOwner: true, MembershipRole: models.MembershipMember, GrantLevel: models.PermissionReader},
			want:    Decision{CanView: true, CanControl: true, CanManage: true},
		},
		{
			name:    "unknown grant level is denied",
			subject: Subject{MembershipRole: models.MembershipMember, GrantLevel: "owner"},
			want:    Decision{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.subject)
			if got != tc.want {
				t.Errorf("Decide(%+v) = %+v, want %+v", tc.subject, got, tc.want)
			}
		})
	}
}
