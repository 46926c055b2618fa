package auth

import (
	"fmt"

	"github.com/frahmantamala/separation-management/internal"
)

type Action string

const (
	ActionCaseCreate         Action = "case.create"
	ActionCaseRead           Action = "case.read"
	ActionCaseUpdate         Action = "case.update"
	ActionCaseAssignManagers Action = "case.assign_managers"
	ActionCaseCancel         Action = "case.cancel"
	ActionCaseComplete       Action = "case.complete"
	ActionCaseListAll        Action = "case.list_all"

	ActionChecklistToggle   Action = "checklist.toggle"
	ActionChecklistAnnotate Action = "checklist.annotate"
	ActionChecklistSubmit   Action = "checklist.submit"

	ActionSignOffAssign      Action = "signoff.assign"
	ActionSignOffResolve     Action = "signoff.resolve"
	ActionSignOffAmend       Action = "signoff.amend"
	ActionSignOffListPending Action = "signoff.list_pending"

	ActionHandoverManage Action = "handover.manage"

	ActionDirectoryManage Action = "directory.manage"
)

// Resource carries the ownership attributes of whatever is being acted on.
// Zero values mean "not applicable".
type Resource struct {
	OwnerID             int64
	DirectManagerID     *int64
	SeparationManagerID *int64
	// AssigneeID is the sign-off assignee for sign-off actions.
	AssigneeID *int64
	// ParticipantIDs are every sign-off assignee on the case.
	ParticipantIDs []int64
}

func (r Resource) isOwner(a *Actor) bool {
	return r.OwnerID != 0 && r.OwnerID == a.ID
}

func (r Resource) isDirectManager(a *Actor) bool {
	return r.DirectManagerID != nil && *r.DirectManagerID == a.ID
}

func (r Resource) isCaseSeparationManager(a *Actor) bool {
	return r.SeparationManagerID != nil && *r.SeparationManagerID == a.ID
}

func (r Resource) isAssignee(a *Actor) bool {
	return r.AssigneeID != nil && *r.AssigneeID == a.ID
}

func (r Resource) isParticipant(a *Actor) bool {
	for _, id := range r.ParticipantIDs {
		if id == a.ID {
			return true
		}
	}
	return r.isAssignee(a)
}

type rule func(a *Actor, r Resource) bool

var rules = map[Action]rule{
	ActionCaseCreate: func(a *Actor, r Resource) bool {
		return a.IsSeparationManager() || (a.Role == RoleEmployee && r.isOwner(a))
	},
	ActionCaseRead: func(a *Actor, r Resource) bool {
		return a.IsSeparationManager() || r.isOwner(a) || r.isDirectManager(a) ||
			r.isCaseSeparationManager(a) || r.isParticipant(a)
	},
	ActionCaseUpdate: func(a *Actor, r Resource) bool {
		return a.IsSeparationManager() || r.isOwner(a) || r.isDirectManager(a) || r.isCaseSeparationManager(a)
	},
	ActionCaseAssignManagers: separationManagerOnly,
	ActionCaseCancel:         separationManagerOnly,
	ActionCaseComplete:       separationManagerOnly,
	ActionCaseListAll:        separationManagerOnly,
	ActionChecklistToggle: func(a *Actor, r Resource) bool {
		return a.IsSeparationManager() || r.isOwner(a)
	},
	ActionChecklistAnnotate: func(a *Actor, r Resource) bool {
		return a.IsSeparationManager() || r.isOwner(a)
	},
	ActionChecklistSubmit: func(a *Actor, r Resource) bool {
		return r.isOwner(a)
	},
	ActionSignOffAssign: separationManagerOnly,
	ActionSignOffResolve: func(a *Actor, r Resource) bool {
		return a.IsSeparationManager() || r.isAssignee(a)
	},
	ActionSignOffAmend: func(a *Actor, r Resource) bool {
		return a.IsSeparationManager() || r.isAssignee(a)
	},
	ActionSignOffListPending: func(a *Actor, _ Resource) bool {
		return a.IsManager()
	},
	ActionHandoverManage: func(a *Actor, r Resource) bool {
		return a.IsSeparationManager() || r.isOwner(a) || r.isDirectManager(a)
	},
	ActionDirectoryManage: separationManagerOnly,
}

func separationManagerOnly(a *Actor, _ Resource) bool {
	return a.IsSeparationManager()
}

// Can reports whether actor may perform action on resource.
func Can(actor *Actor, action Action, resource Resource) bool {
	if actor == nil || !actor.Role.Valid() {
		return false
	}
	check, ok := rules[action]
	if !ok {
		return false
	}
	return check(actor, resource)
}

// Authorize is the capability check every mutating operation goes through.
func Authorize(actor *Actor, action Action, resource Resource) error {
	if Can(actor, action, resource) {
		return nil
	}
	return internal.NewAuthorizationError(
		fmt.Sprintf("not permitted to perform %s", action),
		internal.ErrCodeForbiddenAction,
	)
}
