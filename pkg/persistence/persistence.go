// Package persistence provides the data storage abstraction for work items
// under delivery workflow control.
package persistence

import (
	"context"

	"github.com/handofflabs/handoff/pkg/models"
)

// ListWorkItemsOptions controls filtering, sorting and pagination for list
// queries.
type ListWorkItemsOptions struct {
	Limit  int
	Offset int

	ProjectID      string
	Kind           *models.ItemKind
	DeliveryStatus *models.DeliveryStatus
	AssigneeID     string

	SortBy    string
	SortOrder string
}

// WorkItemListResult is the page returned by ListWorkItems.
type WorkItemListResult struct {
	WorkItems   []*models.WorkItem
	TotalCount  int64
	HasNextPage bool
}

// WorkItemRepository is the contract every storage backend implements.
//
// Update applies a compare-and-swap write: the mutation commits only if the
// stored version still equals the version the caller read, and the item plus
// any newly appended history entries are persisted in one transaction. On
// success the item's Version is incremented in place; on a lost race the
// repository returns ErrVersionConflict and nothing is written.
type WorkItemRepository interface {
	Create(ctx context.Context, item *models.WorkItem) error
	GetByID(ctx context.Context, id string) (*models.WorkItem, error)
	Update(ctx context.Context, item *models.WorkItem) error
	ListWorkItems(ctx context.Context, opts ListWorkItemsOptions) (*WorkItemListResult, error)
}

// Persistence is the root storage handle handed to services.
type Persistence interface {
	WorkItemRepository() WorkItemRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
