package middleware

import (
	"github.com/labstack/echo/v4"
)

const HeaderAPIVersion = "X-API-Version"

// VersionRoute mounts a versioned route group that stamps every response with
// the API version and the service build.
func VersionRoute(e *echo.Echo, version, build string) *echo.Group {
	group := e.Group("/" + version)
	group.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(HeaderAPIVersion, version)
			if build != "" {
				c.Response().Header().Set("X-Service-Version", build)
			}
			return next(c)
		}
	})
	return group
}
