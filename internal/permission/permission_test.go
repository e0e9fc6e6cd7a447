package permission

import (
	"testing"

	"github.com/osscompliance/catreg/internal/domain"
)

func TestDefaultEvaluatorWrite(t *testing.T) {
	e := DefaultEvaluator{}

	tests := []struct {
		name       string
		user       User
		createdBy  string
		moderators []string
		want       bool
	}{
		{"creator may write", User{Email: "a@x.org", Group: GroupUser}, "a@x.org", nil, true},
		{"moderator may write", User{Email: "m@x.org", Group: GroupUser}, "a@x.org", []string{"m@x.org"}, true},
		{"stranger may not write", User{Email: "s@x.org", Group: GroupUser}, "a@x.org", nil, false},
		{"clearing admin may write", User{Email: "c@x.org", Group: GroupClearingAdmin}, "a@x.org", nil, true},
		{"admin may write", User{Email: "r@x.org", Group: GroupAdmin}, "a@x.org", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Allowed(ActionWrite, tt.user, tt.createdBy, tt.moderators); got != tt.want {
				t.Errorf("Allowed(write) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultEvaluatorDelete(t *testing.T) {
	e := DefaultEvaluator{}

	if !e.Allowed(ActionDelete, User{Email: "a@x.org", Group: GroupUser}, "a@x.org", nil) {
		t.Error("creator should be allowed to delete")
	}
	if e.Allowed(ActionDelete, User{Email: "m@x.org", Group: GroupUser}, "a@x.org", []string{"m@x.org"}) {
		t.Error("moderator should not be allowed to delete")
	}
	if e.Allowed(ActionDelete, User{Email: "c@x.org", Group: GroupClearingAdmin}, "a@x.org", nil) {
		t.Error("clearing admin should not be allowed to delete")
	}
	if !e.Allowed(ActionDelete, User{Email: "r@x.org", Group: GroupAdmin}, "a@x.org", nil) {
		t.Error("admin should be allowed to delete")
	}
}

func TestDefaultEvaluatorWriteECC(t *testing.T) {
	e := DefaultEvaluator{}

	if e.Allowed(ActionWriteECC, User{Email: "a@x.org", Group: GroupUser}, "a@x.org", nil) {
		t.Error("creator should not be allowed to edit export control fields")
	}
	if !e.Allowed(ActionWriteECC, User{Email: "e@x.org", Group: GroupEccAdmin}, "a@x.org", nil) {
		t.Error("ecc admin should be allowed to edit export control fields")
	}
	if !e.Allowed(ActionWriteECC, User{Email: "r@x.org", Group: GroupAdmin}, "a@x.org", nil) {
		t.Error("admin should be allowed to edit export control fields")
	}
}

func TestCanMergeComponents(t *testing.T) {
	e := DefaultEvaluator{}
	target := &domain.Component{ID: "t", CreatedBy: "a@x.org"}
	source := &domain.Component{ID: "s", CreatedBy: "b@x.org"}

	// Needs write on both plus delete on source.
	if CanMergeComponents(e, User{Email: "a@x.org", Group: GroupUser}, target, source) {
		t.Error("target creator alone should not be allowed to merge")
	}
	if !CanMergeComponents(e, User{Email: "r@x.org", Group: GroupAdmin}, target, source) {
		t.Error("admin should be allowed to merge")
	}
	// Clearing admin can write both but cannot delete the source.
	if CanMergeComponents(e, User{Email: "c@x.org", Group: GroupClearingAdmin}, target, source) {
		t.Error("clearing admin should not be allowed to merge foreign documents")
	}
	// Source creator who moderates the target can write both and delete source.
	target.Moderators = []string{"b@x.org"}
	if !CanMergeComponents(e, User{Email: "b@x.org", Group: GroupUser}, target, source) {
		t.Error("source creator moderating target should be allowed to merge")
	}
}
