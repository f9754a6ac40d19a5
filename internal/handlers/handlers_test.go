package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockledger/internal/caching"
	"stockledger/internal/common"
	"stockledger/internal/middleware"
	"stockledger/internal/models"
	"stockledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type HandlersTestSuite struct {
	suite.Suite
	e           *echo.Echo
	ledger      *MockLedgerService
	tenants     *MockTenantService
	memberships *MockMembershipService
	rbac        *MockRBACService
	caller      models.Caller
	tenantID    uuid.UUID
	branchID    uuid.UUID
	productID   uuid.UUID
}

func (suite *HandlersTestSuite) SetupTest() {
	suite.ledger = &MockLedgerService{}
	suite.tenants = &MockTenantService{}
	suite.memberships = &MockMembershipService{}
	suite.rbac = &MockRBACService{}
	suite.caller = models.Caller{UserID: uuid.New(), Email: "clerk@example.com"}
	suite.tenantID = uuid.New()
	suite.branchID = uuid.New()
	suite.productID = uuid.New()

	suite.e = echo.New()
	suite.e.HTTPErrorHandler = HTTPErrorHandler(zap.NewNop())
	RegisterRoutes(suite.e, Handlers{
		Inventory:   NewInventoryHandlers(suite.ledger),
		Tenants:     NewTenantHandlers(suite.tenants, suite.memberships),
		Memberships: NewMembershipHandlers(suite.memberships),
		Health:      NewHealthHandlers(stubPinger{}, caching.NewNoopCache(), "test"),
	}, middleware.NewRBACMiddleware(suite.rbac), "test")
}

func (suite *HandlersTestSuite) TearDownTest() {
	suite.ledger.AssertExpectations(suite.T())
	suite.tenants.AssertExpectations(suite.T())
	suite.memberships.AssertExpectations(suite.T())
	suite.rbac.AssertExpectations(suite.T())
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) asRole(role string) models.TenantContext {
	tc := models.TenantContext{TenantID: suite.tenantID, UserID: suite.caller.UserID, Email: suite.caller.Email, Role: role}
	suite.rbac.On("ResolveTenantContext", mock.Anything, suite.caller, suite.tenantID).Return(tc, nil).Once()
	return tc
}

func (suite *HandlersTestSuite) do(method, path, body string, withTenant bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderUserID, suite.caller.UserID.String())
	req.Header.Set(middleware.HeaderUserEmail, suite.caller.Email)
	if withTenant {
		req.Header.Set(middleware.HeaderTenantID, suite.tenantID.String())
	}
	rec := httptest.NewRecorder()
	suite.e.ServeHTTP(rec, req)
	return rec
}

func (suite *HandlersTestSuite) stockPath(op string) string {
	return "/v1/inventory/" + suite.branchID.String() + "/" + suite.productID.String() + "/" + op
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (suite *HandlersTestSuite) TestAdd_Success() {
	suite.asRole(models.RoleUser)
	quantity := 10
	expected := services.StockOperation{
		TenantID:  suite.tenantID,
		BranchID:  suite.branchID,
		ProductID: suite.productID,
		UserID:    suite.caller.UserID,
		Quantity:  &quantity,
		Note:      "delivery",
	}
	suite.ledger.On("Apply", mock.Anything, models.TransactionTypeAdd, expected).
		Return(&models.Inventory{TenantID: suite.tenantID, BranchID: suite.branchID, ProductID: suite.productID, Quantity: 10}, nil).Once()

	rec := suite.do(http.MethodPost, suite.stockPath("add"), `{"quantity":10,"note":"delivery"}`, true)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(suite.T(), 10, body["quantity"])
	assert.Equal(suite.T(), "v1", rec.Header().Get(middleware.HeaderAPIVersion))
}

func (suite *HandlersTestSuite) TestSale_InsufficientStockIsConflict() {
	suite.asRole(models.RoleUser)
	suite.ledger.On("Apply", mock.Anything, models.TransactionTypeSale, mock.Anything).
		Return(nil, common.ErrInsufficientStock).Once()

	rec := suite.do(http.MethodPost, suite.stockPath("sale"), `{"quantity":3}`, true)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	resp := decodeError(suite.T(), rec)
	assert.Equal(suite.T(), string(common.KindConflict), resp.Error.Code)
	assert.Equal(suite.T(), "insufficient stock", resp.Error.Message)
}

func (suite *HandlersTestSuite) TestConcurrentModificationIsRetryable() {
	suite.asRole(models.RoleUser)
	suite.ledger.On("Apply", mock.Anything, models.TransactionTypeRemove, mock.Anything).
		Return(nil, common.ErrConcurrentModification.Wrap(errors.New("40001"))).Once()

	rec := suite.do(http.MethodPost, suite.stockPath("remove"), `{"quantity":1}`, true)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	assert.True(suite.T(), decodeError(suite.T(), rec).Error.Retryable)
}

func (suite *HandlersTestSuite) TestInternalErrorHidesCause() {
	suite.asRole(models.RoleUser)
	suite.ledger.On("Apply", mock.Anything, models.TransactionTypeAdjust, mock.Anything).
		Return(nil, errors.New("pq: password authentication failed")).Once()

	rec := suite.do(http.MethodPost, suite.stockPath("adjust"), `{"quantity":4,"note":"recount"}`, true)
	assert.Equal(suite.T(), http.StatusInternalServerError, rec.Code)
	assert.NotContains(suite.T(), rec.Body.String(), "password")
}

func (suite *HandlersTestSuite) TestStockPath_InvalidBranchID() {
	suite.asRole(models.RoleUser)

	rec := suite.do(http.MethodPost, "/v1/inventory/not-a-uuid/"+suite.productID.String()+"/add", `{"quantity":1}`, true)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(suite.T(), "branch_id is not a valid UUID", decodeError(suite.T(), rec).Error.Details["branch_id"])
}

func (suite *HandlersTestSuite) TestMissingCallerIsUnauthorized() {
	req := httptest.NewRequest(http.MethodGet, "/v1/inventory/alerts/low-stock", nil)
	rec := httptest.NewRecorder()
	suite.e.ServeHTTP(rec, req)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *HandlersTestSuite) TestNonMemberIsForbidden() {
	suite.rbac.On("ResolveTenantContext", mock.Anything, suite.caller, suite.tenantID).
		Return(models.TenantContext{}, common.ErrNotMember).Once()

	rec := suite.do(http.MethodGet, "/v1/inventory/alerts/low-stock", "", true)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
	assert.Equal(suite.T(), "not a member of this tenant", decodeError(suite.T(), rec).Error.Message)
}

func (suite *HandlersTestSuite) TestReconcile_RequiresTenantAdmin() {
	suite.asRole(models.RoleManager)
	rec := suite.do(http.MethodGet, "/v1/inventory/reconcile", "", true)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)

	suite.asRole(models.RoleTenantAdmin)
	suite.ledger.On("Reconcile", mock.Anything, suite.tenantID).Return([]models.LedgerDrift{}, nil).Once()
	rec = suite.do(http.MethodGet, "/v1/inventory/reconcile", "", true)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"consistent":true`)
}

func (suite *HandlersTestSuite) TestListTransactions_BuildsFilter() {
	suite.asRole(models.RoleUser)
	suite.ledger.On("ListTransactions", mock.Anything, suite.tenantID, mock.MatchedBy(func(f models.TransactionFilter) bool {
		return f.BranchID != nil && *f.BranchID == suite.branchID &&
			f.ProductID == nil &&
			f.Type != nil && *f.Type == models.TransactionTypeSale &&
			f.From != nil && f.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			f.Until != nil && f.Until.Equal(time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)) &&
			f.Limit == 20 && f.Offset == 40
	})).Return(&services.TransactionPage{Transactions: []*models.InventoryTransaction{}, Limit: 20, Offset: 40}, nil).Once()

	rec := suite.do(http.MethodGet, "/v1/inventory/transactions?branch_id="+suite.branchID.String()+
		"&type=sale&start_date=2024-03-01&end_date=2024-03-07&limit=20&offset=40", "", true)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
}

func (suite *HandlersTestSuite) TestListTransactions_EndBeforeStart() {
	suite.asRole(models.RoleUser)
	rec := suite.do(http.MethodGet, "/v1/inventory/transactions?start_date=2024-03-07&end_date=2024-03-01", "", true)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *HandlersTestSuite) TestLowStock_WithDetails() {
	suite.asRole(models.RoleUser)
	suite.ledger.On("LowStock", mock.Anything, suite.tenantID, true).
		Return(&services.LowStockReport{Threshold: 5, Count: 1, Items: []models.LowStockItem{{Quantity: 2}}}, nil).Once()

	rec := suite.do(http.MethodGet, "/v1/inventory/alerts/low-stock?details=true", "", true)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"count":1`)
}

func (suite *HandlersTestSuite) TestListBranchInventory_Pages() {
	suite.asRole(models.RoleUser)
	suite.ledger.On("ListBranchInventory", mock.Anything, suite.tenantID, suite.branchID, 10, 20).
		Return(&services.InventoryPage{
			Inventory: []*models.Inventory{{TenantID: suite.tenantID, BranchID: suite.branchID, ProductID: suite.productID, Quantity: 3}},
			Total:     21,
			Limit:     10,
			Offset:    20,
		}, nil).Once()

	rec := suite.do(http.MethodGet, "/v1/inventory/"+suite.branchID.String()+"?limit=10&offset=20", "", true)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var body services.InventoryPage
	require.NoError(suite.T(), json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(suite.T(), int64(21), body.Total)
	require.Len(suite.T(), body.Inventory, 1)
	assert.Equal(suite.T(), 3, body.Inventory[0].Quantity)
}

func (suite *HandlersTestSuite) TestListBranchInventory_UnknownBranch() {
	suite.asRole(models.RoleUser)
	suite.ledger.On("ListBranchInventory", mock.Anything, suite.tenantID, suite.branchID, 0, 0).
		Return(nil, common.ErrInvalidBranch).Once()

	rec := suite.do(http.MethodGet, "/v1/inventory/"+suite.branchID.String(), "", true)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(suite.T(), "invalid or closed branch", decodeError(suite.T(), rec).Error.Message)
}

func (suite *HandlersTestSuite) TestListBranchInventory_InvalidBranchID() {
	suite.asRole(models.RoleUser)

	rec := suite.do(http.MethodGet, "/v1/inventory/not-a-uuid", "", true)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(suite.T(), "branch_id is not a valid UUID", decodeError(suite.T(), rec).Error.Details["branch_id"])
}

func (suite *HandlersTestSuite) TestUnknownRouteIsNotFound() {
	rec := suite.do(http.MethodGet, "/v1/no-such-route", "", false)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)

	rec = suite.do(http.MethodGet, "/v1/no-such-route", "", true)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)
}

func (suite *HandlersTestSuite) TestCreateTenant_OwnerIsCaller() {
	suite.tenants.On("Create", mock.Anything, mock.MatchedBy(func(req *services.CreateTenantRequest) bool {
		return req.Name == "Green Valley" && req.OwnerID == suite.caller.UserID
	})).Return(&services.TenantWithMembership{
		Tenant:     &models.Tenant{ID: suite.tenantID, Name: "Green Valley"},
		Membership: &models.Membership{TenantID: suite.tenantID, UserID: suite.caller.UserID, Role: models.RoleTenantAdmin},
	}, nil).Once()

	rec := suite.do(http.MethodPost, "/v1/tenants", `{"tenant_name":"Green Valley","owner_id":"ignored"}`, false)
	assert.Equal(suite.T(), http.StatusCreated, rec.Code)
}

func (suite *HandlersTestSuite) TestInvite_UserRoleForbidden() {
	suite.asRole(models.RoleUser)
	rec := suite.do(http.MethodPost, "/v1/invitations", `{"email":"a@example.com","role":"user"}`, true)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
}

func (suite *HandlersTestSuite) TestInvite_ManagerScopedToOwnTenant() {
	suite.asRole(models.RoleManager)
	suite.memberships.On("Invite", mock.Anything, mock.MatchedBy(func(req *services.InviteRequest) bool {
		return req.TenantID == suite.tenantID && req.InvitedBy == suite.caller.UserID && req.Role == models.RoleUser
	})).Return(&models.Invitation{TenantID: suite.tenantID, Email: "a@example.com", Role: models.RoleUser}, nil).Once()

	rec := suite.do(http.MethodPost, "/v1/invitations", `{"email":"a@example.com","role":"user"}`, true)
	assert.Equal(suite.T(), http.StatusCreated, rec.Code)
}

func (suite *HandlersTestSuite) TestAccept_Expired() {
	suite.memberships.On("Accept", mock.Anything, &services.AcceptInvitationRequest{
		Token: "tok", UserID: suite.caller.UserID, Email: suite.caller.Email,
	}).Return(nil, common.ErrInvitationExpired).Once()

	rec := suite.do(http.MethodPost, "/v1/invitations/accept", `{"token":"tok"}`, false)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	assert.Equal(suite.T(), "invitation expired", decodeError(suite.T(), rec).Error.Message)
}

func (suite *HandlersTestSuite) TestHealth() {
	rec := suite.do(http.MethodGet, "/health", "", false)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	assert.Contains(suite.T(), rec.Body.String(), `"database":"healthy"`)
}

func TestHealth_DatabaseDown(t *testing.T) {
	e := echo.New()
	h := NewHealthHandlers(stubPinger{err: errors.New("refused")}, caching.NewNoopCache(), "test")
	rec := httptest.NewRecorder()
	require.NoError(t, h.HealthCheck(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
