package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/handofflabs/handoff/pkg/history"
	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/persistence"
)

// WorkItem is the read/list/create surface the API hangs the delivery
// workflow on. Creation and lifecycle edits never touch delivery fields;
// those transition only through the Delivery service.
type WorkItem struct {
	persistence persistence.Persistence
	recorder    *history.Recorder
}

// NewWorkItem creates a new work item service.
func NewWorkItem(p persistence.Persistence) *WorkItem {
	return &WorkItem{
		persistence: p,
		recorder:    history.NewRecorder(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *WorkItem) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkItemsRequest contains options for listing work items.
type ListWorkItemsRequest struct {
	// Pagination
	Limit  int `validate:"min=0,max=100"`
	Offset int `validate:"min=0"`

	// Filtering
	ProjectID      string
	Kind           *models.ItemKind
	DeliveryStatus *models.DeliveryStatus
	AssigneeID     string

	// Sorting
	SortBy    string
	SortOrder string
}

// ListWorkItemsResponse contains the result of listing work items.
type ListWorkItemsResponse struct {
	WorkItems   []*models.WorkItem `json:"work_items"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

// ListWorkItems retrieves work items with filtering, sorting, and pagination.
func (s *WorkItem) ListWorkItems(ctx context.Context, req ListWorkItemsRequest) (*ListWorkItemsResponse, error) {
	err := s.validateListWorkItemsRequest(&req)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	opts := persistence.ListWorkItemsOptions{
		Limit:          req.Limit,
		Offset:         req.Offset,
		ProjectID:      req.ProjectID,
		Kind:           req.Kind,
		DeliveryStatus: req.DeliveryStatus,
		AssigneeID:     req.AssigneeID,
		SortBy:         req.SortBy,
		SortOrder:      req.SortOrder,
	}

	result, err := s.persistence.WorkItemRepository().ListWorkItems(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}

	return &ListWorkItemsResponse{
		WorkItems:   result.WorkItems,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

func (s *WorkItem) validateListWorkItemsRequest(req *ListWorkItemsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "title"}
	if !slices.Contains(allowedSorts, req.SortBy) {
		return fmt.Errorf("%w: '%s', allowed: %s",
			persistence.ErrInvalidSortField, req.SortBy, strings.Join(allowedSorts, ", "))
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		req.SortOrder = "desc"
	}

	if req.DeliveryStatus != nil && !req.DeliveryStatus.Valid() {
		return fmt.Errorf("%w: delivery status '%s'", ErrInvalidStatus, *req.DeliveryStatus)
	}

	return nil
}

// FetchByID retrieves a work item by its ID.
func (s *WorkItem) FetchByID(ctx context.Context, id string) (*models.WorkItem, error) {
	return s.persistence.WorkItemRepository().GetByID(ctx, id)
}

// Create adds a new work item. Delivery fields are forced to their initial
// state regardless of the payload: every item starts with no delivery.
func (s *WorkItem) Create(ctx context.Context, item *models.WorkItem) (*models.WorkItem, error) {
	if item == nil {
		return nil, ErrWorkItemNil
	}

	item.ID = uuid.New().String()
	item.DeliveryStatus = models.DeliveryStatusNone
	item.DeliveryArtifacts = nil
	item.DeliveredBy = ""
	item.ApprovalNote = ""
	item.History = nil
	item.Version = 1

	if item.LifecycleStatus == "" {
		item.LifecycleStatus = models.LifecycleBacklog
	}

	err := s.persistence.WorkItemRepository().Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to create work item: %w", err)
	}

	return item, nil
}

// UpdateLifecycle moves a work item through its broader production statuses
// (backlog, planning, in-progress, testing, ...). It records an audit entry
// but leaves every delivery field untouched; delivery status transitions
// only through the Delivery service.
func (s *WorkItem) UpdateLifecycle(ctx context.Context, principal models.Principal, id string, status models.LifecycleStatus) (*models.WorkItem, error) {
	switch status {
	case models.LifecycleBacklog, models.LifecyclePlanning, models.LifecycleInProgress,
		models.LifecycleTesting, models.LifecycleCompleted, models.LifecycleAccepted,
		models.LifecycleRejected, models.LifecycleCancelled:
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidStatus, status)
	}

	item, err := s.persistence.WorkItemRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := item.LifecycleStatus
	item.LifecycleStatus = status

	entry := history.NewEntry(
		principal.ID, models.HistoryActionStatusChanged,
		item.DeliveryStatus, item.DeliveryStatus,
		fmt.Sprintf("%s -> %s", previous, status),
	)
	s.recorder.Record(item, entry)

	err = s.persistence.WorkItemRepository().Update(ctx, item)
	if err != nil {
		if persistence.IsVersionConflict(err) {
			return nil, fmt.Errorf("%w: %w", ErrDeliveryConflict, err)
		}

		return nil, err
	}

	return item, nil
}
