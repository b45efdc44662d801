// Package testutil provides work item builders shared across tests.
package testutil

import (
	"github.com/google/uuid"
	"github.com/handofflabs/handoff/pkg/models"
)

// Well-known principal ids used by tests.
const (
	AssigneeID = "dev-1"
	DevOpsID   = "devops-1"
	ReviewerID = "reviewer-1"
	QAID       = "qa-1"
	OutsiderID = "outsider-1"
)

// Assignee returns the producing principal tests submit deliveries with.
func Assignee() models.Principal {
	return models.Principal{ID: AssigneeID, Name: "Dana Developer", Role: models.RoleDeveloper}
}

// DevOps returns the operations contact with equivalent submission rights.
func DevOps() models.Principal {
	return models.Principal{ID: DevOpsID, Name: "Odin Ops", Role: models.RoleDevOps}
}

// Reviewer returns the reviewing principal.
func Reviewer() models.Principal {
	return models.Principal{ID: ReviewerID, Name: "Rae Reviewer", Role: models.RoleReviewer}
}

// QA returns the QA principal, the second authorized reviewer.
func QA() models.Principal {
	return models.Principal{ID: QAID, Name: "Quinn QA", Role: models.RoleQA}
}

// Outsider returns a principal with no relationship to the item.
func Outsider() models.Principal {
	return models.Principal{ID: OutsiderID, Name: "Oz Outsider", Role: models.RoleDeveloper}
}

// NewWorkItem builds a module work item wired to the well-known principals,
// with no delivery submitted yet.
func NewWorkItem() *models.WorkItem {
	return &models.WorkItem{
		ID:                  uuid.New().String(),
		ProjectID:           "project-1",
		Kind:                models.ItemKindModule,
		Title:               "Payment gateway module",
		LifecycleStatus:     models.LifecycleInProgress,
		DeliveryStatus:      models.DeliveryStatusNone,
		AssigneeID:          AssigneeID,
		OperationsContactID: DevOpsID,
		ReviewerID:          ReviewerID,
		QAID:                QAID,
		Version:             1,
	}
}

// NewPendingWorkItem builds a work item with a delivery awaiting review.
func NewPendingWorkItem() *models.WorkItem {
	item := NewWorkItem()
	item.DeliveryStatus = models.DeliveryStatusPending
	item.DeliveredBy = AssigneeID
	item.DeliveryArtifacts = []models.Artifact{{Ref: "src.zip"}}

	return item
}

// Artifacts builds an artifact list from refs.
func Artifacts(refs ...string) []models.Artifact {
	artifacts := make([]models.Artifact, 0, len(refs))
	for _, ref := range refs {
		artifacts = append(artifacts, models.Artifact{Ref: ref})
	}

	return artifacts
}
