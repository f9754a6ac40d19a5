package middleware

import (
	"stockledger/internal/common"
	"stockledger/internal/services"

	"github.com/labstack/echo/v4"
)

type RBACMiddleware struct {
	rbacService services.RBACService
}

func NewRBACMiddleware(rbacService services.RBACService) *RBACMiddleware {
	return &RBACMiddleware{
		rbacService: rbacService,
	}
}

// ResolveTenant turns the X-Tenant-ID header into the caller's membership. It must
// run after RequireCaller.
func (m *RBACMiddleware) ResolveTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			caller, ok := CallerFromContext(ctx)
			if !ok {
				return common.SendUnauthorizedError(c)
			}

			tenantID, err := common.ValidateUUID(c.Request().Header.Get(HeaderTenantID), "tenant_id")
			if err != nil {
				return common.SendValidationError(c, "tenant_id", err.Error())
			}

			tc, err := m.rbacService.ResolveTenantContext(ctx, caller, tenantID)
			if err != nil {
				return common.SendAppError(c, err)
			}

			c.SetRequest(c.Request().WithContext(WithTenantContext(ctx, tc)))
			return next(c)
		}
	}
}

// RequireRole admits members holding one of roles.
func (m *RBACMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tc, ok := TenantFromContext(c.Request().Context())
			if !ok {
				return common.SendAppError(c, common.ErrNotMember)
			}
			if err := m.rbacService.Authorize(tc, roles...); err != nil {
				return common.SendAppError(c, err)
			}
			return next(c)
		}
	}
}
