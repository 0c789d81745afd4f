package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	Customer      model.CustomerDetails `json:"customer"`
	PaymentMethod string                `json:"payment_method"`

	CardToken          string `json:"card_token"`
	IntentClientSecret string `json:"intent_client_secret"`

	Bank string `json:"bank"`
}

type GiftCardRequest struct {
	Code string `json:"code"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/checkout")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.GET("/summary", h.summary)
	g.POST("/gift-card", h.applyGiftCard)
	g.DELETE("/gift-card", h.removeGiftCard)
	g.POST("/payment-intent", h.paymentIntent)
	g.POST("", h.checkout)
}

func (h *CheckoutHandler) summary(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Summary(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) applyGiftCard(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req GiftCardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.ApplyGiftCard(c.Request().Context(), userID, req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) removeGiftCard(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.RemoveGiftCard(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// カード決済の前にintentを作る
func (h *CheckoutHandler) paymentIntent(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	in, err := h.uc.CreatePaymentIntent(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, in)
}

// 保存が後回しになった場合は202
func (h *CheckoutHandler) checkout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	res, err := h.uc.Checkout(c.Request().Context(), userID, usecase.CheckoutInput{
		Customer:           req.Customer,
		PaymentMethod:      model.PaymentMethod(req.PaymentMethod),
		CardToken:          req.CardToken,
		IntentClientSecret: req.IntentClientSecret,
		Bank:               req.Bank,
	})
	if err != nil {
		return writeError(c, err)
	}

	if res.State == usecase.CheckoutPendingReconciliation {
		return c.JSON(http.StatusAccepted, res)
	}
	return c.JSON(http.StatusOK, res)
}
