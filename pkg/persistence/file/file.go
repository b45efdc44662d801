// Package file provides a JSON-file persistence implementation for work
// items, intended for development and tests.
package file

import (
	"context"
	"fmt"
	"os"

	"github.com/handofflabs/handoff/pkg/persistence"
)

// Persistence implements the persistence layer on the local filesystem.
type Persistence struct {
	root         string
	workItemRepo *WorkItemRepository
}

// NewPersistence creates a file persistence layer rooted at the given path.
func NewPersistence(root string) *Persistence {
	return &Persistence{
		root:         root,
		workItemRepo: NewWorkItemRepository(root),
	}
}

// WorkItemRepository returns the work item repository.
func (p *Persistence) WorkItemRepository() persistence.WorkItemRepository {
	return p.workItemRepo
}

// HealthCheck verifies the storage root is reachable and writable.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := os.MkdirAll(p.root, 0o750)
	if err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(ctx context.Context) error {
	return nil
}
