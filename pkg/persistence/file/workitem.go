package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/persistence"
)

// WorkItemRepository stores one JSON document per work item under
// <root>/workitems. A single repository-wide mutex serializes the
// read-check-write sequence so compare-and-swap semantics hold without
// database support.
type WorkItemRepository struct {
	root string
	mu   sync.Mutex
}

// NewWorkItemRepository creates a new work item repository.
func NewWorkItemRepository(root string) *WorkItemRepository {
	return &WorkItemRepository{root: root}
}

func (r *WorkItemRepository) dir() string {
	return filepath.Join(r.root, "workitems")
}

func (r *WorkItemRepository) path(id string) string {
	return filepath.Join(r.dir(), id+".json")
}

// Create persists a new work item. The item must not already exist.
func (r *WorkItemRepository) Create(ctx context.Context, item *models.WorkItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.MkdirAll(r.dir(), 0o750)
	if err != nil {
		return persistence.NewWorkItemError("Create", item.ID, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	if _, err := os.Stat(r.path(item.ID)); err == nil {
		return persistence.NewWorkItemError("Create", item.ID, persistence.ErrWorkItemAlreadyExists)
	}

	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}

	item.UpdatedAt = now

	if item.Version == 0 {
		item.Version = 1
	}

	return r.write(item)
}

// GetByID loads a work item by id. Returns ErrWorkItemNotFound when absent.
func (r *WorkItemRepository) GetByID(ctx context.Context, id string) (*models.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(id)
}

// Update applies a compare-and-swap write against the stored version. On a
// version mismatch nothing is written and ErrVersionConflict is returned.
func (r *WorkItemRepository) Update(ctx context.Context, item *models.WorkItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.load(item.ID)
	if err != nil {
		return err
	}

	if stored.Version != item.Version {
		return persistence.NewWorkItemError("Update", item.ID, persistence.ErrVersionConflict)
	}

	item.Version++
	item.UpdatedAt = time.Now().UTC()

	err = r.write(item)
	if err != nil {
		item.Version--

		return err
	}

	return nil
}

// ListWorkItems returns filtered, sorted and paginated work items loaded
// from the filesystem.
func (r *WorkItemRepository) ListWorkItems(ctx context.Context, opts persistence.ListWorkItemsOptions) (*persistence.WorkItemListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"title":      true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	jsonFiles, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list work item files: %w", err)
	}

	filtered := make([]*models.WorkItem, 0, len(jsonFiles))

	for _, f := range jsonFiles {
		item, err := r.load(strings.TrimSuffix(f, ".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to load work item %s: %w", f, err)
		}

		if opts.ProjectID != "" && item.ProjectID != opts.ProjectID {
			continue
		}

		if opts.Kind != nil && item.Kind != *opts.Kind {
			continue
		}

		if opts.DeliveryStatus != nil && item.DeliveryStatus != *opts.DeliveryStatus {
			continue
		}

		if opts.AssigneeID != "" && item.AssigneeID != opts.AssigneeID {
			continue
		}

		filtered = append(filtered, item)
	}

	r.sortWorkItems(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))

	startIdx := opts.Offset
	if startIdx >= len(filtered) {
		return &persistence.WorkItemListResult{
			WorkItems:   make([]*models.WorkItem, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	endIdx := opts.Offset + opts.Limit
	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}

	return &persistence.WorkItemListResult{
		WorkItems:   filtered[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filtered),
	}, nil
}

func (r *WorkItemRepository) sortWorkItems(items []*models.WorkItem, sortBy, sortOrder string) {
	sort.SliceStable(items, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "updated_at":
			less = items[i].UpdatedAt.Before(items[j].UpdatedAt)
		case "title":
			less = items[i].Title < items[j].Title
		default:
			less = items[i].CreatedAt.Before(items[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

func (r *WorkItemRepository) load(id string) (*models.WorkItem, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewWorkItemError("GetByID", id, persistence.ErrWorkItemNotFound)
		}

		return nil, persistence.NewWorkItemError("GetByID", id, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	var item models.WorkItem

	err = json.Unmarshal(data, &item)
	if err != nil {
		return nil, persistence.NewWorkItemError("GetByID", id, fmt.Errorf("corrupt work item file: %w", err))
	}

	return &item, nil
}

func (r *WorkItemRepository) write(item *models.WorkItem) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return persistence.NewWorkItemError("Save", item.ID, err)
	}

	err = os.WriteFile(r.path(item.ID), data, 0o600)
	if err != nil {
		return persistence.NewWorkItemError("Save", item.ID, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	return nil
}
