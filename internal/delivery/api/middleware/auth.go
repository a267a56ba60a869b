// Package middleware contains echo middleware specific to the API server.
package middleware

import (
	"strings"

	"ownerauth/config"
	deliverycontext "ownerauth/internal/delivery/context"
	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/domain/service"
	"ownerauth/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const bearerPrefix = "Bearer "

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	Sessions usecase.SessionUsecase
	Tokens   service.DeviceTokenIssuer
	Config   *config.Config
}

// AuthMiddleware authenticates owner requests by bearer session token.
type AuthMiddleware struct {
	sessions     usecase.SessionUsecase
	tokens       service.DeviceTokenIssuer
	deviceHeader string
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:     params.Sessions,
		tokens:       params.Tokens,
		deviceHeader: params.Config.Auth.TrustedDeviceHeader,
	}
}

// IdentifyDevice hashes the trusted-device header, if present, and stores the hash on the context.
// A malformed token is rejected as a validation error.
func (m *AuthMiddleware) IdentifyDevice(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := strings.TrimSpace(c.Request().Header.Get(m.deviceHeader))
		if raw != "" {
			hash, err := m.tokens.Hash(raw)
			if err != nil {
				return err
			}
			deliverycontext.SetTrustedDeviceHash(c, hash)
		}

		return next(c)
	}
}

// Authenticate requires an active session. Sessions bound to a trusted device also need that device's token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return m.IdentifyDevice(func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		token, found := strings.CutPrefix(authHeader, bearerPrefix)
		token = strings.TrimSpace(token)
		if !found || token == "" {
			return errors.WithStack(domainerrors.ErrUnauthorized)
		}

		ok, err := m.sessions.VerifySessionForDevice(c.Request().Context(), token, deliverycontext.GetTrustedDeviceHash(c))
		if err != nil {
			return err
		}
		if !ok {
			return errors.WithStack(domainerrors.ErrUnauthorized)
		}

		deliverycontext.SetSessionToken(c, token)

		return next(c)
	})
}
