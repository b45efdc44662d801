// Package authz implements the authorization policy for delivery workflow
// actions. Decisions are pure values: no I/O, no side effects, safe to call
// speculatively to drive UI affordances.
package authz

import "github.com/handofflabs/handoff/pkg/models"

// Action is a requested workflow operation.
type Action string

const (
	ActionSubmitDelivery Action = "submit-delivery"
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
)

// DenyReason explains an authorization denial. Reasons are surfaced verbatim
// to callers so the consuming UI can explain why an action is unavailable.
type DenyReason string

const (
	ReasonNotAssigned     DenyReason = "NOT_ASSIGNED"
	ReasonAlreadyAccepted DenyReason = "ALREADY_ACCEPTED"
	ReasonNotPending      DenyReason = "NOT_PENDING"
	ReasonNotReviewer     DenyReason = "NOT_REVIEWER"
	ReasonUnknownAction   DenyReason = "UNKNOWN_ACTION"
)

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  DenyReason // Empty when allowed
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Decide evaluates whether the principal may perform the action on the work
// item. On the submit side the terminal-acceptance check runs before the
// assignment check so a mis-addressed submit against an accepted item still
// reports ALREADY_ACCEPTED. On the approval side the reviewer check runs
// first: a principal outside the reviewing set gets NOT_REVIEWER regardless
// of delivery status, and only an actual reviewer acting out of turn sees
// NOT_PENDING.
func Decide(principal models.Principal, item *models.WorkItem, action Action) Decision {
	switch action {
	case ActionSubmitDelivery:
		if item.DeliveryStatus.Terminal() {
			return deny(ReasonAlreadyAccepted)
		}

		if !item.IsProducer(principal.ID) {
			return deny(ReasonNotAssigned)
		}

		return allow()
	case ActionApprove, ActionReject:
		if !item.IsReviewer(principal.ID) {
			return deny(ReasonNotReviewer)
		}

		if item.DeliveryStatus != models.DeliveryStatusPending {
			return deny(ReasonNotPending)
		}

		return allow()
	default:
		return deny(ReasonUnknownAction)
	}
}
