package middleware

import (
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// 全端末ログアウト後の古いトークンと、無効化された利用者を弾く
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := identityFrom(c)
			if !ok {
				return deny(c)
			}

			user, err := userRepo.FindByID(c.Request().Context(), id.userID)
			if err != nil || user == nil || !user.IsActive {
				return deny(c)
			}
			if user.TokenVersion != id.tokenVersion {
				return deny(c)
			}
			return next(c)
		}
	}
}
