package middleware

import (
	"context"
	"strings"

	"stockledger/internal/common"
	"stockledger/internal/models"

	"github.com/labstack/echo/v4"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderTenantID  = "X-Tenant-ID"
)

type contextKey string

const (
	callerKey contextKey = "caller"
	tenantKey contextKey = "tenant_context"
)

// RequireCaller reads the identity placed on the request by the upstream gateway.
// Requests without a valid user id are rejected with 401.
func RequireCaller() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := common.ValidateUUID(c.Request().Header.Get(HeaderUserID), "user_id")
			if err != nil {
				return common.SendUnauthorizedError(c)
			}

			caller := models.Caller{
				UserID: userID,
				Email:  strings.TrimSpace(c.Request().Header.Get(HeaderUserEmail)),
			}
			ctx := WithCaller(c.Request().Context(), caller)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// CallerFromContext returns the caller set by RequireCaller.
func CallerFromContext(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(models.Caller)
	return caller, ok
}

// TenantFromContext returns the membership resolved by RBACMiddleware.ResolveTenant.
func TenantFromContext(ctx context.Context) (models.TenantContext, bool) {
	tc, ok := ctx.Value(tenantKey).(models.TenantContext)
	return tc, ok
}

// WithTenantContext stores tc on ctx. Used by ResolveTenant and by handler tests.
func WithTenantContext(ctx context.Context, tc models.TenantContext) context.Context {
	return context.WithValue(ctx, tenantKey, tc)
}

// WithCaller stores caller on ctx.
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}
