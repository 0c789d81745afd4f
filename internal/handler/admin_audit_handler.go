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

type AdminAuditHandler struct {
	uc *usecase.AdminAuditUsecase
}

func NewAdminAuditHandler(uc *usecase.AdminAuditUsecase) *AdminAuditHandler {
	return &AdminAuditHandler{uc: uc}
}

// GET /admin/audit-logs?resource_type=order&resource_id=5
func (h *AdminAuditHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/audit-logs", h.history)
}

func (h *AdminAuditHandler) history(c echo.Context) error {
	page, limit, msg := parsePaging(c, 50)
	if msg != "" {
		return badRequest(c, msg)
	}

	in := usecase.AuditHistoryInput{
		ResourceType: c.QueryParam("resource_type"),
		Page:         page,
		Limit:        limit,
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid resource_id")
		}
		in.ResourceID = id
	}

	out, err := h.uc.History(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
