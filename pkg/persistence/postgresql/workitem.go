package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/persistence"
)

// WorkItemRepository handles work-item database operations. Mutations use a
// conditional UPDATE on the stored version so concurrent transitions against
// the same item cannot both commit.
type WorkItemRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkItemRepository creates a new work item repository.
func NewWorkItemRepository(db *sql.DB, logger *slog.Logger) *WorkItemRepository {
	return &WorkItemRepository{db: db, logger: logger}
}

const workItemColumns = `
	id
  , project_id
  , kind
  , title
  , lifecycle_status
  , delivery_status
  , assignee_id
  , operations_contact_id
  , reviewer_id
  , qa_id
  , delivered_by
  , delivery_artifacts
  , approval_note
  , version
  , created_at
  , updated_at
`

// Create inserts a new work item row.
func (r *WorkItemRepository) Create(ctx context.Context, item *models.WorkItem) error {
	now := time.Now().UTC()

	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}

	item.UpdatedAt = now

	if item.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate work item ID: %w", err)
		}

		item.ID = id.String()
	}

	if item.Version == 0 {
		item.Version = 1
	}

	artifactsJSON, err := json.Marshal(item.DeliveryArtifacts)
	if err != nil {
		return persistence.NewWorkItemError("Create", item.ID, err)
	}

	query := `
		INSERT INTO work_items (
			id, project_id, kind, title, lifecycle_status, delivery_status,
			assignee_id, operations_contact_id, reviewer_id, qa_id,
			delivered_by, delivery_artifacts, approval_note, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.ProjectID, item.Kind, item.Title, item.LifecycleStatus,
		item.DeliveryStatus, item.AssigneeID, item.OperationsContactID,
		item.ReviewerID, item.QAID, item.DeliveredBy, artifactsJSON,
		item.ApprovalNote, item.Version, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkItemError("Create", item.ID, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	return nil
}

// GetByID loads a work item and its full history.
func (r *WorkItemRepository) GetByID(ctx context.Context, id string) (*models.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = $1`

	item, err := r.scanWorkItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkItemError("GetByID", id, persistence.ErrWorkItemNotFound)
		}

		return nil, persistence.NewWorkItemError("GetByID", id, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	err = r.loadHistory(ctx, r.db, item)
	if err != nil {
		return nil, persistence.NewWorkItemError("GetByID", id, err)
	}

	return item, nil
}

// Update commits the mutated item and any newly appended history entries in
// one transaction, conditioned on the version the caller read. Zero rows
// updated means another writer won the race.
func (r *WorkItemRepository) Update(ctx context.Context, item *models.WorkItem) error {
	artifactsJSON, err := json.Marshal(item.DeliveryArtifacts)
	if err != nil {
		return persistence.NewWorkItemError("Update", item.ID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence.NewWorkItemError("Update", item.ID, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	query := `
		UPDATE work_items SET
			lifecycle_status = $1
		  , delivery_status = $2
		  , delivered_by = $3
		  , delivery_artifacts = $4
		  , approval_note = $5
		  , version = version + 1
		  , updated_at = $6
		WHERE id = $7 AND version = $8
	`

	result, err := tx.ExecContext(ctx, query,
		item.LifecycleStatus, item.DeliveryStatus, item.DeliveredBy,
		artifactsJSON, item.ApprovalNote, now, item.ID, item.Version,
	)
	if err != nil {
		return persistence.NewWorkItemError("Update", item.ID, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkItemError("Update", item.ID, err)
	}

	if affected == 0 {
		err = r.classifyMissedUpdate(ctx, tx, item.ID)

		return err
	}

	err = r.appendNewHistory(ctx, tx, item)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return persistence.NewWorkItemError("Update", item.ID, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	item.Version++
	item.UpdatedAt = now

	return nil
}

// classifyMissedUpdate distinguishes a lost version race from a missing row.
func (r *WorkItemRepository) classifyMissedUpdate(ctx context.Context, tx *sql.Tx, id string) error {
	var exists bool

	err := tx.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM work_items WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return persistence.NewWorkItemError("Update", id, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	if !exists {
		return persistence.NewWorkItemError("Update", id, persistence.ErrWorkItemNotFound)
	}

	return persistence.NewWorkItemError("Update", id, persistence.ErrVersionConflict)
}

// appendNewHistory inserts history entries beyond those already persisted.
// History is append-only, so the stored row count identifies the new tail.
func (r *WorkItemRepository) appendNewHistory(ctx context.Context, tx *sql.Tx, item *models.WorkItem) error {
	var stored int

	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM work_item_history WHERE work_item_id = $1", item.ID,
	).Scan(&stored)
	if err != nil {
		return persistence.NewWorkItemError("Update", item.ID, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
	}

	if stored > len(item.History) {
		return persistence.NewWorkItemError("Update", item.ID,
			fmt.Errorf("history shorter than stored log (%d < %d)", len(item.History), stored))
	}

	insert := `
		INSERT INTO work_item_history (
			id, work_item_id, occurred_at, actor_id, action, note, from_status, to_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, entry := range item.History[stored:] {
		_, err = tx.ExecContext(ctx, insert,
			entry.ID, item.ID, entry.Timestamp, entry.ActorID, entry.Action,
			entry.Note, entry.FromStatus, entry.ToStatus,
		)
		if err != nil {
			return persistence.NewWorkItemError("Update", item.ID, fmt.Errorf("%w: %w", persistence.ErrStoreUnavailable, err))
		}
	}

	return nil
}

// ListWorkItems returns filtered, sorted and paginated work items. History
// is not loaded for list views.
func (r *WorkItemRepository) ListWorkItems(ctx context.Context, opts persistence.ListWorkItemsOptions) (*persistence.WorkItemListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder != "asc" {
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

	where := "WHERE 1=1"
	args := make([]any, 0, 6)

	if opts.ProjectID != "" {
		args = append(args, opts.ProjectID)
		where += fmt.Sprintf(" AND project_id = $%d", len(args))
	}

	if opts.Kind != nil {
		args = append(args, *opts.Kind)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	if opts.DeliveryStatus != nil {
		args = append(args, *opts.DeliveryStatus)
		where += fmt.Sprintf(" AND delivery_status = $%d", len(args))
	}

	if opts.AssigneeID != "" {
		args = append(args, opts.AssigneeID)
		where += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}

	var totalCount int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM work_items "+where, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count work items: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM work_items %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		workItemColumns, where, opts.SortBy, opts.SortOrder, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work items: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	items := make([]*models.WorkItem, 0)

	for rows.Next() {
		item, err := r.scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}

		items = append(items, item)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating work items: %w", err)
	}

	return &persistence.WorkItemListResult{
		WorkItems:   items,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(items)) < totalCount,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WorkItemRepository) scanWorkItem(row rowScanner) (*models.WorkItem, error) {
	var (
		item          models.WorkItem
		artifactsJSON []byte
	)

	err := row.Scan(
		&item.ID, &item.ProjectID, &item.Kind, &item.Title,
		&item.LifecycleStatus, &item.DeliveryStatus, &item.AssigneeID,
		&item.OperationsContactID, &item.ReviewerID, &item.QAID,
		&item.DeliveredBy, &artifactsJSON, &item.ApprovalNote,
		&item.Version, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(artifactsJSON) > 0 {
		err = json.Unmarshal(artifactsJSON, &item.DeliveryArtifacts)
		if err != nil {
			return nil, fmt.Errorf("failed to decode delivery artifacts: %w", err)
		}
	}

	return &item, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *WorkItemRepository) loadHistory(ctx context.Context, q queryer, item *models.WorkItem) error {
	query := `
		SELECT
			id
		  , occurred_at
		  , actor_id
		  , action
		  , note
		  , from_status
		  , to_status
		FROM work_item_history
		WHERE work_item_id = $1
		ORDER BY seq ASC
	`

	rows, err := q.QueryContext(ctx, query, item.ID)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close history rows", "error", err)
		}
	}()

	item.History = make([]models.HistoryEntry, 0)

	for rows.Next() {
		var entry models.HistoryEntry

		err = rows.Scan(
			&entry.ID, &entry.Timestamp, &entry.ActorID, &entry.Action,
			&entry.Note, &entry.FromStatus, &entry.ToStatus,
		)
		if err != nil {
			return fmt.Errorf("failed to scan history entry: %w", err)
		}

		item.History = append(item.History, entry)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("error iterating history: %w", err)
	}

	return nil
}
