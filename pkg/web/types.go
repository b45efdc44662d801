package web

import "github.com/handofflabs/handoff/pkg/models"

// ArtifactPayload is one delivered file reference in a submission body.
type ArtifactPayload struct {
	Ref       string `json:"ref"        validate:"required"`
	Label     string `json:"label,omitempty"`
	CommitRef string `json:"commit_ref,omitempty"`
}

// SubmitDeliveryRequest is the body of POST /work-items/:id/delivery.
type SubmitDeliveryRequest struct {
	Artifacts []ArtifactPayload `json:"artifacts"  validate:"required,min=1,dive"`
	Note      string            `json:"note,omitempty"`
	CommitRef string            `json:"commit_ref,omitempty"`
}

// ApproveDeliveryRequest is the body of POST /work-items/:id/approval.
type ApproveDeliveryRequest struct {
	Decision models.DeliveryStatus `json:"decision" validate:"required,oneof=accepted rejected"`
	Note     string                `json:"note,omitempty"`
}

// CreateWorkItemRequest is the body of POST /work-items. Delivery fields are
// not accepted here; they transition only through the workflow endpoints.
type CreateWorkItemRequest struct {
	ProjectID           string          `json:"project_id"            validate:"required"`
	Kind                models.ItemKind `json:"kind"                  validate:"required,oneof=module story task"`
	Title               string          `json:"title"                 validate:"required,min=3"`
	AssigneeID          string          `json:"assignee_id"           validate:"required"`
	OperationsContactID string          `json:"operations_contact_id,omitempty"`
	ReviewerID          string          `json:"reviewer_id,omitempty"`
	QAID                string          `json:"qa_id,omitempty"`
}

// UpdateLifecycleRequest is the body of PATCH /work-items/:id/status.
type UpdateLifecycleRequest struct {
	Status models.LifecycleStatus `json:"status" validate:"required"`
}

// PermissionsResponse reports which workflow actions the acting principal
// may take on a work item, for UI affordances.
type PermissionsResponse struct {
	CanSubmitDelivery  bool `json:"can_submit_delivery"`
	CanApproveDelivery bool `json:"can_approve_delivery"`
}
