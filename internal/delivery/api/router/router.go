// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"ownerauth/internal/delivery/api/middleware"
	"ownerauth/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	AccountHandler *handler.AccountHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	accountHandler *handler.AccountHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		accountHandler: params.AccountHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes; session management requires an authenticated caller
	authn := r.authMiddleware.Authenticate
	authGroup := e.Group("/auth")
	{
		authGroup.GET("/status", r.authHandler.GetStatus)
		authGroup.POST("/otp", r.authHandler.RequestOTP)
		authGroup.POST("/signup", r.authHandler.Signup)
		authGroup.POST("/login", r.authHandler.Login, r.authMiddleware.IdentifyDevice)

		authGroup.GET("/session", r.authHandler.GetSession, authn)
		authGroup.POST("/logout", r.authHandler.Logout, authn)
		authGroup.POST("/logout-all", r.authHandler.LogoutAll, authn)
		authGroup.POST("/password", r.authHandler.ChangePassword, authn)
		authGroup.DELETE("/trusted-devices", r.authHandler.ClearTrustedDevices, authn)
	}

	// Account routes that require authentication
	accountGroup := e.Group("/account")
	accountGroup.Use(r.authMiddleware.Authenticate)
	{
		accountGroup.GET("", r.accountHandler.GetAccount)
		accountGroup.PUT("", r.accountHandler.UpdateAccount)
	}
}
