// Package handler contains the HTTP handlers of the API server.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"ownerauth/internal/delivery/api/response"
	deliverycontext "ownerauth/internal/delivery/context"
	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/domain/service"
	"ownerauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC    usecase.AuthUsecase
	SessionUC usecase.SessionUsecase
	DeviceUC  usecase.DeviceUsecase
	OTPUC     usecase.OTPUsecase
	Tokens    service.DeviceTokenIssuer
	Logger    *slog.Logger
}

// AuthHandler serves signup, login, one-time passwords and session management.
type AuthHandler struct {
	authUC    usecase.AuthUsecase
	sessionUC usecase.SessionUsecase
	deviceUC  usecase.DeviceUsecase
	otpUC     usecase.OTPUsecase
	tokens    service.DeviceTokenIssuer
	logger    *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC:    params.AuthUC,
		sessionUC: params.SessionUC,
		deviceUC:  params.DeviceUC,
		otpUC:     params.OTPUC,
		tokens:    params.Tokens,
		logger:    params.Logger,
	}
}

// RequestOTPRequest represents the request body for requesting a one-time password
type RequestOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required,oneof=signup login"`
}

// SignupRequest represents the request body for creating the owner.
// Required-field checks happen in the usecase so the error codes stay uniform.
type SignupRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name" validate:"omitempty,max=200"`
	Timezone     string `json:"timezone"`
	OTPChallenge string `json:"otp_challenge"`
	OTPCode      string `json:"otp_code"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	OTPChallenge string `json:"otp_challenge"`
	OTPCode      string `json:"otp_code"`
	TrustDevice  bool   `json:"trust_device"`
}

// ChangePasswordRequest represents the request body for changing the password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// LogoutAllRequest represents the optional request body for revoking sessions
type LogoutAllRequest struct {
	KeepCurrent *bool `json:"keep_current"`
}

// GetStatus tells a client whether to show signup or login.
func (h *AuthHandler) GetStatus(c echo.Context) error {
	status, err := h.authUC.GetStatus(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]bool{
		"has_owner":   status.HasOwner,
		"otp_enabled": h.otpUC.Enabled(),
	})
}

// RequestOTP issues a one-time password challenge.
func (h *AuthHandler) RequestOTP(c echo.Context) error {
	var req RequestOTPRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid one-time password request")
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	out, err := h.otpUC.RequestCode(c.Request().Context(), &usecase.RequestCodeInput{
		Email:   req.Email,
		Purpose: service.OTPPurpose(req.Purpose),
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusAccepted, map[string]any{
		"challenge":  out.Challenge,
		"expires_at": out.ExpiresAt,
	})
}

// Signup creates the owner account.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid signup input")
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	ctx := c.Request().Context()
	if h.otpUC.Enabled() {
		if err := h.checkOTP(ctx, req.Email, service.OTPPurposeSignup, req.OTPChallenge, req.OTPCode); err != nil {
			return response.HandleAppError(c, err)
		}
	}

	session, err := h.authUC.Signup(ctx, &usecase.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Timezone: req.Timezone,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, newSessionResponse(session))
}

// Login passes the one-time password gate when required, then starts a session.
// With trust_device the session is bound to a newly issued trusted-device token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}

	ctx := c.Request().Context()
	deviceHash := deliverycontext.GetTrustedDeviceHash(c)

	required, err := h.otpUC.Required(ctx, deviceHash)
	if err != nil {
		return response.HandleAppError(c, err)
	}
	if required {
		if err := h.checkOTP(ctx, req.Email, service.OTPPurposeLogin, req.OTPChallenge, req.OTPCode); err != nil {
			return response.HandleAppError(c, err)
		}
	}

	trusted, err := h.deviceUC.HasTrustedDevice(ctx, deviceHash)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	var bindHash, newDeviceToken string
	switch {
	case trusted:
		bindHash = deviceHash
	case req.TrustDevice:
		newDeviceToken, bindHash, err = h.tokens.Issue()
		if err != nil {
			return response.HandleAppError(c, err)
		}
	}

	session, err := h.authUC.StartLogin(ctx, &usecase.LoginInput{
		Email:                  req.Email,
		Password:               req.Password,
		TrustedDeviceTokenHash: bindHash,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	switch {
	case newDeviceToken != "":
		err = h.deviceUC.RegisterTrustedDevice(ctx, bindHash, 0)
	case trusted:
		err = h.deviceUC.TouchTrustedDevice(ctx, bindHash)
	}
	if err != nil {
		return response.HandleAppError(c, err)
	}

	res := newSessionResponse(session)
	res.TrustedDeviceToken = newDeviceToken

	return response.Success(c, http.StatusOK, res)
}

// GetSession returns the calling session.
func (h *AuthHandler) GetSession(c echo.Context) error {
	session, err := h.sessionUC.GetSession(c.Request().Context(), deliverycontext.GetSessionToken(c))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newSessionResponse(session))
}

// Logout revokes the calling session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessionUC.Logout(c.Request().Context(), deliverycontext.GetSessionToken(c)); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every session, keeping the calling one unless keep_current is false.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	var req LogoutAllRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid logout input")
	}

	keepToken := deliverycontext.GetSessionToken(c)
	if req.KeepCurrent != nil && !*req.KeepCurrent {
		keepToken = ""
	}

	if err := h.sessionUC.LogoutAll(c.Request().Context(), keepToken); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ChangePassword rotates the password and returns the only session left.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid password input")
	}

	session, err := h.authUC.ChangePassword(c.Request().Context(), &usecase.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, newSessionResponse(session))
}

// ClearTrustedDevices forgets every trusted device.
func (h *AuthHandler) ClearTrustedDevices(c echo.Context) error {
	if err := h.deviceUC.ClearTrustedDevices(c.Request().Context()); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) checkOTP(ctx context.Context, email string, purpose service.OTPPurpose, challenge, code string) error {
	if challenge == "" || code == "" {
		return errors.WithStack(domainerrors.ErrOTPRequired)
	}

	return h.otpUC.VerifyCode(ctx, &usecase.VerifyCodeInput{
		Email:     email,
		Purpose:   purpose,
		Challenge: challenge,
		Code:      code,
	})
}
