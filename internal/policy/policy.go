// Package policy implements the task access-control rules.
//
// It is pure decision logic: given a task, an acting identity, and an
// intended action, Decide returns an allow/deny outcome with a reason. The
// service layer consults it before every read or mutation; the package itself
// performs no I/O.
package policy

import (
	"github.com/xeno035/taskhive/internal/domain"
)

// Action is an operation a user may attempt on a task.
type Action string

// Actions the policy knows how to evaluate.
const (
	ActionRead              Action = "read"
	ActionUpdate            Action = "update"
	ActionDelete            Action = "delete"
	ActionShare             Action = "share"
	ActionMarkOwnCompletion Action = "mark_own_completion"
)

// Deny reasons, stable strings suitable for logs and error messages.
const (
	ReasonNotVisible    = "not visible"
	ReasonNotCreator    = "only creator may modify, delete or share"
	ReasonNotAuthorized = "not authorized"
	ReasonUnknownAction = "unknown action"
)

// Decision is the outcome of a policy evaluation. When Allowed is false,
// Reason explains the denial.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the decision granting the action.
var Allow = Decision{Allowed: true}

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Decide evaluates whether the actor may perform the action on the task.
//
// Rules, first match wins:
//   - Read: owner or collaborator.
//   - Update, Delete, Share: owner only.
//   - MarkOwnCompletion: collaborator only (the owner completes through the
//     task status, not through the completion set).
//
// There is no hierarchy or delegation; collaborators are granted nothing
// beyond read and their own completion mark.
func Decide(task *domain.Task, actor domain.Identity, action Action) Decision {
	switch action {
	case ActionRead:
		if task.IsOwnedBy(actor.ID) || task.HasCollaborator(actor.Email) {
			return Allow
		}
		return Deny(ReasonNotVisible)

	case ActionUpdate, ActionDelete, ActionShare:
		if task.IsOwnedBy(actor.ID) {
			return Allow
		}
		return Deny(ReasonNotCreator)

	case ActionMarkOwnCompletion:
		if task.HasCollaborator(actor.Email) {
			return Allow
		}
		return Deny(ReasonNotAuthorized)

	default:
		return Deny(ReasonUnknownAction)
	}
}
