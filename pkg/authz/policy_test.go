package authz_test

import (
	"testing"

	"github.com/handofflabs/handoff/pkg/authz"
	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDecide_SubmitDelivery(t *testing.T) {
	tests := []struct {
		name       string
		principal  models.Principal
		status     models.DeliveryStatus
		wantAllow  bool
		wantReason authz.DenyReason
	}{
		{
			name:      "assignee may submit a fresh item",
			principal: testutil.Assignee(),
			status:    models.DeliveryStatusNone,
			wantAllow: true,
		},
		{
			name:      "operations contact may submit",
			principal: testutil.DevOps(),
			status:    models.DeliveryStatusNone,
			wantAllow: true,
		},
		{
			name:      "assignee may resubmit after rejection",
			principal: testutil.Assignee(),
			status:    models.DeliveryStatusRejected,
			wantAllow: true,
		},
		{
			name:       "nobody may submit an accepted item",
			principal:  testutil.Assignee(),
			status:     models.DeliveryStatusAccepted,
			wantAllow:  false,
			wantReason: authz.ReasonAlreadyAccepted,
		},
		{
			name:       "accepted wins over not-assigned",
			principal:  testutil.Outsider(),
			status:     models.DeliveryStatusAccepted,
			wantAllow:  false,
			wantReason: authz.ReasonAlreadyAccepted,
		},
		{
			name:       "unrelated principal is denied",
			principal:  testutil.Outsider(),
			status:     models.DeliveryStatusNone,
			wantAllow:  false,
			wantReason: authz.ReasonNotAssigned,
		},
		{
			name:       "reviewer is not a producer",
			principal:  testutil.Reviewer(),
			status:     models.DeliveryStatusNone,
			wantAllow:  false,
			wantReason: authz.ReasonNotAssigned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := testutil.NewWorkItem()
			item.DeliveryStatus = tt.status

			decision := authz.Decide(tt.principal, item, authz.ActionSubmitDelivery)

			assert.Equal(t, tt.wantAllow, decision.Allowed)
			assert.Equal(t, tt.wantReason, decision.Reason)
		})
	}
}

func TestDecide_Approve(t *testing.T) {
	tests := []struct {
		name       string
		principal  models.Principal
		status     models.DeliveryStatus
		action     authz.Action
		wantAllow  bool
		wantReason authz.DenyReason
	}{
		{
			name:      "reviewer may approve a pending delivery",
			principal: testutil.Reviewer(),
			status:    models.DeliveryStatusPending,
			action:    authz.ActionApprove,
			wantAllow: true,
		},
		{
			name:      "qa may reject a pending delivery",
			principal: testutil.QA(),
			status:    models.DeliveryStatusPending,
			action:    authz.ActionReject,
			wantAllow: true,
		},
		{
			name:       "non-reviewer is denied regardless of status",
			principal:  testutil.Outsider(),
			status:     models.DeliveryStatusNone,
			action:     authz.ActionApprove,
			wantAllow:  false,
			wantReason: authz.ReasonNotReviewer,
		},
		{
			name:       "non-reviewer is denied even when pending",
			principal:  testutil.Outsider(),
			status:     models.DeliveryStatusPending,
			action:     authz.ActionApprove,
			wantAllow:  false,
			wantReason: authz.ReasonNotReviewer,
		},
		{
			name:       "assignee cannot review own delivery",
			principal:  testutil.Assignee(),
			status:     models.DeliveryStatusPending,
			action:     authz.ActionApprove,
			wantAllow:  false,
			wantReason: authz.ReasonNotReviewer,
		},
		{
			name:       "reviewer cannot act before submission",
			principal:  testutil.Reviewer(),
			status:     models.DeliveryStatusNone,
			action:     authz.ActionApprove,
			wantAllow:  false,
			wantReason: authz.ReasonNotPending,
		},
		{
			name:       "reviewer cannot act twice on accepted",
			principal:  testutil.Reviewer(),
			status:     models.DeliveryStatusAccepted,
			action:     authz.ActionReject,
			wantAllow:  false,
			wantReason: authz.ReasonNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := testutil.NewWorkItem()
			item.DeliveryStatus = tt.status

			decision := authz.Decide(tt.principal, item, tt.action)

			assert.Equal(t, tt.wantAllow, decision.Allowed)
			assert.Equal(t, tt.wantReason, decision.Reason)
		})
	}
}

func TestDecide_UnknownAction(t *testing.T) {
	decision := authz.Decide(testutil.Assignee(), testutil.NewWorkItem(), authz.Action("archive"))

	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonUnknownAction, decision.Reason)
}

// Decisions must be speculative: evaluating the policy never mutates the item.
func TestDecide_IsSideEffectFree(t *testing.T) {
	item := testutil.NewPendingWorkItem()
	before := *item

	_ = authz.Decide(testutil.Reviewer(), item, authz.ActionApprove)
	_ = authz.Decide(testutil.Outsider(), item, authz.ActionSubmitDelivery)

	assert.Equal(t, before, *item)
}
