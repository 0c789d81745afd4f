package middleware

import (
	"storefront/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// ADMINだけ通す（AuthJWTの後に置く）
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			if role == "" {
				return deny(c)
			}
			if model.Role(role) != model.RoleAdmin {
				return forbid(c, "admin only")
			}
			return next(c)
		}
	}
}
