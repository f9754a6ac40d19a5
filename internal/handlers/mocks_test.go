package handlers

import (
	"context"

	"stockledger/internal/common"
	"stockledger/internal/models"
	"stockledger/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Add(ctx context.Context, op services.StockOperation) (*models.Inventory, error) {
	return m.Apply(ctx, models.TransactionTypeAdd, op)
}

func (m *MockLedgerService) Sale(ctx context.Context, op services.StockOperation) (*models.Inventory, error) {
	return m.Apply(ctx, models.TransactionTypeSale, op)
}

func (m *MockLedgerService) Remove(ctx context.Context, op services.StockOperation) (*models.Inventory, error) {
	return m.Apply(ctx, models.TransactionTypeRemove, op)
}

func (m *MockLedgerService) Adjust(ctx context.Context, op services.StockOperation) (*models.Inventory, error) {
	return m.Apply(ctx, models.TransactionTypeAdjust, op)
}

func (m *MockLedgerService) Apply(ctx context.Context, txType models.TransactionType, op services.StockOperation) (*models.Inventory, error) {
	args := m.Called(ctx, txType, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inventory), args.Error(1)
}

func (m *MockLedgerService) GetInventory(ctx context.Context, key models.LedgerKey) (*models.Inventory, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inventory), args.Error(1)
}

func (m *MockLedgerService) ListBranchInventory(ctx context.Context, tenantID, branchID uuid.UUID, limit, offset int) (*services.InventoryPage, error) {
	args := m.Called(ctx, tenantID, branchID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InventoryPage), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.TransactionFilter) (*services.TransactionPage, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TransactionPage), args.Error(1)
}

func (m *MockLedgerService) LowStock(ctx context.Context, tenantID uuid.UUID, withItems bool) (*services.LowStockReport, error) {
	args := m.Called(ctx, tenantID, withItems)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LowStockReport), args.Error(1)
}

func (m *MockLedgerService) Reconcile(ctx context.Context, tenantID uuid.UUID) ([]models.LedgerDrift, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LedgerDrift), args.Error(1)
}

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Create(ctx context.Context, req *services.CreateTenantRequest) (*services.TenantWithMembership, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TenantWithMembership), args.Error(1)
}

func (m *MockTenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Tenant, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Invite(ctx context.Context, req *services.InviteRequest) (*models.Invitation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockMembershipService) Accept(ctx context.Context, req *services.AcceptInvitationRequest) (*models.Membership, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MockMembershipService) Reject(ctx context.Context, token string, caller models.Caller) error {
	args := m.Called(ctx, token, caller)
	return args.Error(0)
}

func (m *MockMembershipService) Revoke(ctx context.Context, tenantID, invitationID uuid.UUID) error {
	args := m.Called(ctx, tenantID, invitationID)
	return args.Error(0)
}

func (m *MockMembershipService) ListPending(ctx context.Context, tenantID uuid.UUID) ([]*models.Invitation, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invitation), args.Error(1)
}

func (m *MockMembershipService) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Membership), args.Error(1)
}

func (m *MockMembershipService) ExpireOverdue(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockRBACService struct {
	mock.Mock
}

func (m *MockRBACService) ResolveTenantContext(ctx context.Context, caller models.Caller, tenantID uuid.UUID) (models.TenantContext, error) {
	args := m.Called(ctx, caller, tenantID)
	return args.Get(0).(models.TenantContext), args.Error(1)
}

// Authorize applies the real role check so routes can be tested per role.
func (m *MockRBACService) Authorize(tc models.TenantContext, roles ...string) error {
	if len(roles) == 0 || tc.HasRole(roles...) {
		return nil
	}
	return common.ErrInsufficientRole
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}
