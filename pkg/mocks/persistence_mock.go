package mocks

import (
	"context"

	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockRunRepository is a mock implementation of persistence.RunRepository
// interface.
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *models.Run) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

func (m *MockRunRepository) Update(ctx context.Context, run *models.Run) error {
	args := m.Called(ctx, run)

	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id string) (*models.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Run), args.Error(1)
}

func (m *MockRunRepository) ListRuns(ctx context.Context, opts persistence.ListRunsOptions) (*persistence.RunListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.RunListResult), args.Error(1)
}

func (m *MockRunRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence
// interface.
type MockPersistence struct {
	mock.Mock

	runRepo *MockRunRepository
}

// NewMockPersistence creates a new MockPersistence with a mock run
// repository.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{runRepo: &MockRunRepository{}}
}

// GetMockRunRepository returns the underlying mock run repository for
// setting up expectations.
func (m *MockPersistence) GetMockRunRepository() *MockRunRepository {
	return m.runRepo
}

func (m *MockPersistence) RunRepository() persistence.RunRepository {
	return m.runRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
