package postgresql

import (
	"database/sql"
	"log/slog"

	"github.com/handofflabs/handoff/pkg/persistence/sqlbase"
)

func sqlbaseMigrations(logger *slog.Logger, db *sql.DB) *sqlbase.MigrationManager {
	return sqlbase.NewMigrationManager(logger, db, migrations())
}

// migrations returns the ordered schema migrations for the work item store.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS work_items (
				id UUID PRIMARY KEY,
				project_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				title TEXT NOT NULL,
				lifecycle_status TEXT NOT NULL DEFAULT 'backlog',
				delivery_status TEXT NOT NULL DEFAULT 'none',
				assignee_id TEXT NOT NULL,
				operations_contact_id TEXT NOT NULL DEFAULT '',
				reviewer_id TEXT NOT NULL DEFAULT '',
				qa_id TEXT NOT NULL DEFAULT '',
				delivered_by TEXT NOT NULL DEFAULT '',
				delivery_artifacts JSONB NOT NULL DEFAULT '[]',
				approval_note TEXT NOT NULL DEFAULT '',
				version BIGINT NOT NULL DEFAULT 1,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_work_items_project ON work_items (project_id);
			CREATE INDEX IF NOT EXISTS idx_work_items_delivery_status ON work_items (delivery_status);
			CREATE INDEX IF NOT EXISTS idx_work_items_assignee ON work_items (assignee_id);

			CREATE TABLE IF NOT EXISTS work_item_history (
				id UUID PRIMARY KEY,
				work_item_id UUID NOT NULL REFERENCES work_items (id) ON DELETE CASCADE,
				seq BIGSERIAL,
				occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
				actor_id TEXT NOT NULL,
				action TEXT NOT NULL,
				note TEXT NOT NULL DEFAULT '',
				from_status TEXT NOT NULL,
				to_status TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_work_item_history_item ON work_item_history (work_item_id, seq);
		`,
	}
}
