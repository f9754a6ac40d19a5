package handlers

import (
	"net/http"

	"stockledger/internal/common"
	"stockledger/internal/middleware"
	"stockledger/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant-related HTTP requests
type TenantHandlers struct {
	tenantService     services.TenantService
	membershipService services.MembershipService
}

// NewTenantHandlers creates a new tenant handlers instance
func NewTenantHandlers(tenantService services.TenantService, membershipService services.MembershipService) *TenantHandlers {
	return &TenantHandlers{
		tenantService:     tenantService,
		membershipService: membershipService,
	}
}

type RenameTenantRequest struct {
	Name string `json:"tenant_name"`
}

type ChangeTenantStatusRequest struct {
	Status string `json:"status"`
}

// CreateTenant creates a tenant owned by the caller, who becomes its tenantAdmin.
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	caller, ok := middleware.CallerFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	req.OwnerID = caller.UserID

	res, err := h.tenantService.Create(c.Request().Context(), &req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *TenantHandlers) GetCurrentTenant(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), tc.TenantID)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenant": tenant,
		"role":   tc.Role,
	})
}

func (h *TenantHandlers) RenameTenant(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	var req RenameTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	tenant, err := h.tenantService.Rename(c.Request().Context(), tc.TenantID, req.Name)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) ChangeTenantStatus(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	var req ChangeTenantStatusRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	tenant, err := h.tenantService.ChangeStatus(c.Request().Context(), tc.TenantID, req.Status)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandlers) ListMembers(c echo.Context) error {
	tc, ok := middleware.TenantFromContext(c.Request().Context())
	if !ok {
		return common.SendAppError(c, common.ErrNotMember)
	}

	members, err := h.membershipService.ListMembers(c.Request().Context(), tc.TenantID)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"members": members})
}
