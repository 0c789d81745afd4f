package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc *usecase.AuthUsecase
}

func NewAdminUserHandler(uc *usecase.AuthUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	// /admin 配下は「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)

	admin.POST("/users/:id/force-logout", h.forceLogout)
}

// 対象ユーザーのtoken_versionを上げる
func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		return badRequest(c, "invalid user_id")
	}

	res, err := h.uc.LogoutAll(c.Request().Context(), userID)
	if err != nil {
		if usecase.IsKind(err, usecase.KindUnauthorized) {
			return writeError(c, usecase.NewHTTPError(http.StatusNotFound, "user not found"))
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}
