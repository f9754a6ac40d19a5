package services

import (
	"context"
	"time"

	"stockledger/internal/events"
	"stockledger/internal/models"
	"stockledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetInventory(ctx context.Context, key models.LedgerKey) (*models.Inventory, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inventory), args.Error(1)
}

func (m *MockCacheService) SetInventory(ctx context.Context, inventory *models.Inventory, ttl time.Duration) error {
	args := m.Called(ctx, inventory, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteInventory(ctx context.Context, key models.LedgerKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) GetLowStockCount(ctx context.Context, tenantID uuid.UUID, threshold int) (int64, bool, error) {
	args := m.Called(ctx, tenantID, threshold)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockCacheService) SetLowStockCount(ctx context.Context, tenantID uuid.UUID, threshold int, count int64, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, threshold, count, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteLowStockCount(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishTransaction(ctx context.Context, event events.TransactionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) WithTx(tx repositories.DBTX) repositories.MembershipRepository {
	return m
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) FindActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MockMembershipRepository) Exists(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Membership), args.Error(1)
}
