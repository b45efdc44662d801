// Package mocks provides testify mock implementations of the storage and
// event bus contracts for unit tests.
package mocks

import (
	"context"

	"github.com/handofflabs/handoff/pkg/models"
	"github.com/handofflabs/handoff/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockWorkItemRepository is a mock implementation of persistence.WorkItemRepository.
type MockWorkItemRepository struct {
	mock.Mock
}

func (m *MockWorkItemRepository) Create(ctx context.Context, item *models.WorkItem) error {
	args := m.Called(ctx, item)

	return args.Error(0)
}

func (m *MockWorkItemRepository) GetByID(ctx context.Context, id string) (*models.WorkItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkItem), args.Error(1)
}

func (m *MockWorkItemRepository) Update(ctx context.Context, item *models.WorkItem) error {
	args := m.Called(ctx, item)

	return args.Error(0)
}

func (m *MockWorkItemRepository) ListWorkItems(ctx context.Context, opts persistence.ListWorkItemsOptions) (*persistence.WorkItemListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.WorkItemListResult), args.Error(1)
}

// MockPersistence is a mock implementation of persistence.Persistence.
type MockPersistence struct {
	mock.Mock

	Repo *MockWorkItemRepository
}

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{Repo: &MockWorkItemRepository{}}
}

func (m *MockPersistence) WorkItemRepository() persistence.WorkItemRepository {
	return m.Repo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
