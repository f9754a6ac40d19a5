package handlers

import (
	"stockledger/internal/middleware"
	"stockledger/internal/models"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Inventory   *InventoryHandlers
	Tenants     *TenantHandlers
	Memberships *MembershipHandlers
	Health      *HealthHandlers
}

// RegisterRoutes mounts the health check and the /v1 API on e.
func RegisterRoutes(e *echo.Echo, h Handlers, rbac *middleware.RBACMiddleware, version string) {
	e.GET("/health", h.Health.HealthCheck)

	v1 := middleware.VersionRoute(e, "v1", version)
	v1.Use(middleware.RequireCaller())

	// Caller-only routes: no tenant membership required yet.
	v1.POST("/tenants", h.Tenants.CreateTenant)
	v1.POST("/invitations/accept", h.Memberships.Accept)
	v1.POST("/invitations/reject", h.Memberships.Reject)

	// Tenant routes take ResolveTenant per route. A group with an empty prefix
	// would register its catch-all at /v1/* and answer unknown paths with a
	// tenant error instead of 404.
	tenant := rbac.ResolveTenant()
	admin := rbac.RequireRole(models.RoleTenantAdmin)
	inviters := rbac.RequireRole(models.RoleTenantAdmin, models.RoleManager)

	v1.GET("/tenants/current", h.Tenants.GetCurrentTenant, tenant)
	v1.GET("/tenants/current/members", h.Tenants.ListMembers, tenant)
	v1.PATCH("/tenants/current/name", h.Tenants.RenameTenant, tenant, admin)
	v1.PATCH("/tenants/current/status", h.Tenants.ChangeTenantStatus, tenant, admin)

	v1.POST("/invitations", h.Memberships.Invite, tenant, inviters)
	v1.GET("/invitations", h.Memberships.ListPending, tenant, inviters)
	v1.DELETE("/invitations/:id", h.Memberships.Revoke, tenant, inviters)

	v1.GET("/inventory/transactions", h.Inventory.ListTransactions, tenant)
	v1.GET("/inventory/alerts/low-stock", h.Inventory.LowStock, tenant)
	v1.GET("/inventory/reconcile", h.Inventory.Reconcile, tenant, admin)
	v1.GET("/inventory/:branchId", h.Inventory.ListBranchInventory, tenant)
	v1.GET("/inventory/:branchId/:productId", h.Inventory.GetInventory, tenant)
	v1.POST("/inventory/:branchId/:productId/add", h.Inventory.Add, tenant)
	v1.POST("/inventory/:branchId/:productId/sale", h.Inventory.Sale, tenant)
	v1.POST("/inventory/:branchId/:productId/remove", h.Inventory.Remove, tenant)
	v1.POST("/inventory/:branchId/:productId/adjust", h.Inventory.Adjust, tenant)
}
