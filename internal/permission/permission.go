// Package permission evaluates whether a user may act on a catalog document.
package permission

import "github.com/osscompliance/catreg/internal/domain"

// Group is a user's privilege level.
type Group string

const (
	GroupUser          Group = "user"
	GroupClearingAdmin Group = "clearing_admin"
	GroupEccAdmin      Group = "ecc_admin"
	GroupAdmin         Group = "admin"
)

// User identifies the acting user for a catalog operation.
type User struct {
	Email      string
	Group      Group
	Department string
}

// Action is a kind of access to a document.
type Action string

const (
	ActionRead      Action = "read"
	ActionWrite     Action = "write"
	ActionWriteECC  Action = "write_ecc"
	ActionDelete    Action = "delete"
	ActionUsersView Action = "users_view"
)

// Evaluator decides whether a user may perform an action on a document
// described by its creator and moderator list.
type Evaluator interface {
	Allowed(action Action, user User, createdBy string, moderators []string) bool
}

// DefaultEvaluator implements the standard catalog rules: reads are open,
// writes require being the creator, a moderator, or at least clearing admin,
// and deletes require being the creator or an admin.
type DefaultEvaluator struct{}

func (DefaultEvaluator) Allowed(action Action, user User, createdBy string, moderators []string) bool {
	switch action {
	case ActionRead, ActionUsersView:
		return true
	case ActionWrite:
		if user.Group == GroupAdmin || user.Group == GroupClearingAdmin {
			return true
		}
		if user.Email != "" && user.Email == createdBy {
			return true
		}
		return domain.SetContains(moderators, user.Email)
	case ActionWriteECC:
		return user.Group == GroupAdmin || user.Group == GroupEccAdmin
	case ActionDelete:
		if user.Group == GroupAdmin {
			return true
		}
		return user.Email != "" && user.Email == createdBy
	default:
		return false
	}
}

// CanMergeComponents reports whether the user may merge source into target:
// write access on both documents plus delete access on the source.
func CanMergeComponents(e Evaluator, user User, target, source *domain.Component) bool {
	return e.Allowed(ActionWrite, user, target.CreatedBy, target.Moderators) &&
		e.Allowed(ActionWrite, user, source.CreatedBy, source.Moderators) &&
		e.Allowed(ActionDelete, user, source.CreatedBy, source.Moderators)
}

// CanMergeReleases reports whether the user may merge source into target.
func CanMergeReleases(e Evaluator, user User, target, source *domain.Release) bool {
	return e.Allowed(ActionWrite, user, target.CreatedBy, target.Moderators) &&
		e.Allowed(ActionWrite, user, source.CreatedBy, source.Moderators) &&
		e.Allowed(ActionDelete, user, source.CreatedBy, source.Moderators)
}
