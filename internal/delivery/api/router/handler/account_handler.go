package handler

import (
	"log/slog"
	"net/http"

	"ownerauth/internal/delivery/api/response"
	"ownerauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AccountHandlerParams holds dependencies for AccountHandler, injected by Fx.
type AccountHandlerParams struct {
	fx.In

	AccountUC usecase.AccountUsecase
	Logger    *slog.Logger
}

// AccountHandler serves the owner account settings.
type AccountHandler struct {
	accountUC usecase.AccountUsecase
	logger    *slog.Logger
}

// NewAccountHandler is the constructor for AccountHandler
func NewAccountHandler(params AccountHandlerParams) *AccountHandler {
	return &AccountHandler{
		accountUC: params.AccountUC,
		logger:    params.Logger,
	}
}

// UpdateAccountRequest represents the request body for updating account settings.
// Email and role are not accepted.
type UpdateAccountRequest struct {
	FullName string `json:"full_name" validate:"omitempty,max=200"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

// GetAccount returns the account settings.
func (h *AccountHandler) GetAccount(c echo.Context) error {
	settings, err := h.accountUC.GetAccountSettings(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newAccountResponse(settings))
}

// UpdateAccount changes the display name and timezone.
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid account input")
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	settings, err := h.accountUC.UpdateAccountSettings(c.Request().Context(), &usecase.UpdateAccountInput{
		FullName: req.FullName,
		Timezone: req.Timezone,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newAccountResponse(settings))
}
