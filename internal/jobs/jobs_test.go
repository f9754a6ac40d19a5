package jobs

import (
	"context"
	"errors"
	"testing"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type MockTenantLister struct {
	mock.Mock
}

func (m *MockTenantLister) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockLowStockLister struct {
	mock.Mock
}

func (m *MockLowStockLister) ListLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) ([]models.LowStockItem, error) {
	args := m.Called(ctx, tenantID, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LowStockItem), args.Error(1)
}

type MockLedgerReconciler struct {
	mock.Mock
}

func (m *MockLedgerReconciler) Reconcile(ctx context.Context, tenantID uuid.UUID) ([]models.LedgerDrift, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerDrift), args.Error(1)
}

type MockInvitationExpirer struct {
	mock.Mock
}

func (m *MockInvitationExpirer) ExpireOverdue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type JobsTestSuite struct {
	suite.Suite
	tenants   *MockTenantLister
	inventory *MockLowStockLister
	ledger    *MockLedgerReconciler
	ctx       context.Context
}

func (suite *JobsTestSuite) SetupTest() {
	suite.tenants = &MockTenantLister{}
	suite.inventory = &MockLowStockLister{}
	suite.ledger = &MockLedgerReconciler{}
	suite.ctx = context.Background()
}

func (suite *JobsTestSuite) TearDownTest() {
	suite.tenants.AssertExpectations(suite.T())
	suite.inventory.AssertExpectations(suite.T())
	suite.ledger.AssertExpectations(suite.T())
}

func TestJobsTestSuite(t *testing.T) {
	suite.Run(t, new(JobsTestSuite))
}

func (suite *JobsTestSuite) TestCheckLowStock_MapsItems() {
	tenantID := uuid.New()
	item := models.LowStockItem{BranchID: uuid.New(), BranchName: "Main", ProductID: uuid.New(), ProductName: "Urea", Quantity: 2}
	suite.inventory.On("ListLowStock", suite.ctx, tenantID, 5).Return([]models.LowStockItem{item}, nil)

	svc := NewInventoryAlertService(suite.tenants, suite.inventory, 5, zap.NewNop())
	alerts, err := svc.CheckLowStock(suite.ctx, tenantID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), alerts, 1)
	assert.Equal(suite.T(), InventoryAlert{
		TenantID: tenantID, BranchID: item.BranchID, BranchName: "Main",
		ProductID: item.ProductID, ProductName: "Urea", CurrentStock: 2, Threshold: 5,
	}, alerts[0])
}

func (suite *JobsTestSuite) TestCheckAllTenants_SkipsFailingTenant() {
	broken, healthy := uuid.New(), uuid.New()
	suite.tenants.On("ListActiveIDs", suite.ctx).Return([]uuid.UUID{broken, healthy}, nil)
	suite.inventory.On("ListLowStock", suite.ctx, broken, 5).Return(nil, errors.New("timeout"))
	suite.inventory.On("ListLowStock", suite.ctx, healthy, 5).Return([]models.LowStockItem{}, nil)

	svc := NewInventoryAlertService(suite.tenants, suite.inventory, 5, zap.NewNop())
	assert.NoError(suite.T(), svc.CheckAllTenants(suite.ctx))
}

func (suite *JobsTestSuite) TestCheckAllTenants_TenantListFailure() {
	suite.tenants.On("ListActiveIDs", suite.ctx).Return(nil, errors.New("db down"))

	svc := NewInventoryAlertService(suite.tenants, suite.inventory, 5, zap.NewNop())
	assert.Error(suite.T(), svc.CheckAllTenants(suite.ctx))
}

func (suite *JobsTestSuite) TestReconciliation_CountsDrift() {
	a, b := uuid.New(), uuid.New()
	suite.tenants.On("ListActiveIDs", suite.ctx).Return([]uuid.UUID{a, b}, nil)
	suite.ledger.On("Reconcile", suite.ctx, a).Return([]models.LedgerDrift{}, nil)
	suite.ledger.On("Reconcile", suite.ctx, b).Return([]models.LedgerDrift{
		{BranchID: uuid.New(), ProductID: uuid.New(), Quantity: 7, TransactionSum: 5},
	}, nil)

	n, err := NewReconciliationJob(suite.tenants, suite.ledger, zap.NewNop()).Run(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, n)
}

func TestInvitationExpiryJob(t *testing.T) {
	expirer := &MockInvitationExpirer{}
	expirer.On("ExpireOverdue", mock.Anything).Return(int64(2), nil).Once()
	expirer.On("ExpireOverdue", mock.Anything).Return(int64(0), errors.New("db down")).Once()

	job := NewInvitationExpiryJob(expirer, zap.NewNop())
	assert.NoError(t, job.Run(context.Background()))
	assert.Error(t, job.Run(context.Background()))
	expirer.AssertExpectations(t)
}
