package handlers

import (
	"net/http"
	"strings"

	"stockledger/internal/common"
	"stockledger/internal/middleware"
	"stockledger/internal/models"
	"stockledger/internal/services"

	"github.com/labstack/echo/v4"
)

// InventoryHandlers exposes the ledger operations and its read side.
type InventoryHandlers struct {
	ledger services.LedgerService
}

func NewInventoryHandlers(ledger services.LedgerService) *InventoryHandlers {
	return &InventoryHandlers{ledger: ledger}
}

// StockRequest is the body of add, sale, remove and adjust. For adjust, quantity
// is the new absolute level.
type StockRequest struct {
	Quantity *int   `json:"quantity"`
	Note     string `json:"note"`
}

type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListTransactionsRequest represents query parameters for the transaction history
type ListTransactionsRequest struct {
	BranchID  string `query:"branch_id"`
	ProductID string `query:"product_id"`
	Type      string `query:"type"`
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
	Limit     int    `query:"limit"`
	Offset    int    `query:"offset"`
}

func (h *InventoryHandlers) Add(c echo.Context) error {
	return h.apply(c, models.TransactionTypeAdd)
}

func (h *InventoryHandlers) Sale(c echo.Context) error {
	return h.apply(c, models.TransactionTypeSale)
}

func (h *InventoryHandlers) Remove(c echo.Context) error {
	return h.apply(c, models.TransactionTypeRemove)
}

func (h *InventoryHandlers) Adjust(c echo.Context) error {
	return h.apply(c, models.TransactionTypeAdjust)
}

func (h *InventoryHandlers) apply(c echo.Context, txType models.TransactionType) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	key, field, err := ledgerKeyFromPath(c, tc)
	if err != nil {
		return common.SendValidationError(c, field, err.Error())
	}

	var req StockRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	inventory, err := h.ledger.Apply(c.Request().Context(), txType, services.StockOperation{
		TenantID:  key.TenantID,
		BranchID:  key.BranchID,
		ProductID: key.ProductID,
		UserID:    tc.UserID,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		return common.SendAppError(c, err)
	}

	return c.JSON(http.StatusOK, inventory)
}

func (h *InventoryHandlers) GetInventory(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	key, field, err := ledgerKeyFromPath(c, tc)
	if err != nil {
		return common.SendValidationError(c, field, err.Error())
	}

	inventory, err := h.ledger.GetInventory(c.Request().Context(), key)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, inventory)
}

// ListBranchInventory returns one page of a branch's inventory.
func (h *InventoryHandlers) ListBranchInventory(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	branchID, err := common.ValidateUUID(c.Param("branchId"), "branch_id")
	if err != nil {
		return common.SendValidationError(c, "branch_id", err.Error())
	}

	var req PageRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "query", "Invalid query parameters")
	}

	page, err := h.ledger.ListBranchInventory(c.Request().Context(), tc.TenantID, branchID, req.Limit, req.Offset)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListTransactions returns the tenant's transaction history, newest first.
func (h *InventoryHandlers) ListTransactions(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	var req ListTransactionsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "query", "Invalid query parameters")
	}

	var filter models.TransactionFilter
	var err error
	if filter.BranchID, err = common.ValidateOptionalUUID(req.BranchID, "branch_id"); err != nil {
		return common.SendValidationError(c, "branch_id", err.Error())
	}
	if filter.ProductID, err = common.ValidateOptionalUUID(req.ProductID, "product_id"); err != nil {
		return common.SendValidationError(c, "product_id", err.Error())
	}
	if req.Type != "" {
		txType := models.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type)))
		filter.Type = &txType
	}
	if filter.From, filter.Until, err = common.ParseDayRange(req.StartDate, req.EndDate); err != nil {
		return common.SendValidationError(c, "date_range", err.Error())
	}
	filter.Limit, filter.Offset = req.Limit, req.Offset

	page, err := h.ledger.ListTransactions(c.Request().Context(), tc.TenantID, filter)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// LowStock reports how many rows sit at or below the threshold. With
// ?details=true the rows themselves are included.
func (h *InventoryHandlers) LowStock(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	report, err := h.ledger.LowStock(c.Request().Context(), tc.TenantID, c.QueryParam("details") == "true")
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *InventoryHandlers) Reconcile(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	drifts, err := h.ledger.Reconcile(c.Request().Context(), tc.TenantID)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"consistent": len(drifts) == 0,
		"drift":      drifts,
	})
}

// ledgerKeyFromPath builds the key from the path and the resolved tenant. On
// failure it also returns the offending field.
func ledgerKeyFromPath(c echo.Context, tc models.TenantContext) (models.LedgerKey, string, error) {
	branchID, err := common.ValidateUUID(c.Param("branchId"), "branch_id")
	if err != nil {
		return models.LedgerKey{}, "branch_id", err
	}
	productID, err := common.ValidateUUID(c.Param("productId"), "product_id")
	if err != nil {
		return models.LedgerKey{}, "product_id", err
	}
	return models.LedgerKey{TenantID: tc.TenantID, BranchID: branchID, ProductID: productID}, "", nil
}
