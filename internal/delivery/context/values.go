// Package context carries request-scoped values between the delivery and usecase layers.
package context

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderXRequestID is the HTTP header carrying the request id in both directions.
const HeaderXRequestID = "X-Request-Id"

type key string

const (
	keyRequestID         key = "request_id"
	keyLogger            key = "logger"
	keySessionToken      key = "session_token"
	keyTrustedDeviceHash key = "trusted_device_hash"
)

func get[T any](c echo.Context, k key) T {
	v, _ := c.Get(string(k)).(T)

	return v
}

// SetRequestID stores the request id on the echo context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(string(keyRequestID), requestID)
}

// GetRequestID returns the request id, or a fresh one when the middleware did not run.
func GetRequestID(c echo.Context) string {
	if id := get[string](c, keyRequestID); id != "" {
		return id
	}

	return uuid.NewString()
}

// SetSessionToken stores the authenticated bearer token.
func SetSessionToken(c echo.Context, token string) {
	c.Set(string(keySessionToken), token)
}

// GetSessionToken returns the authenticated bearer token, or "" on public routes.
func GetSessionToken(c echo.Context) string {
	return get[string](c, keySessionToken)
}

// SetTrustedDeviceHash stores the hash of the presented trusted-device token.
func SetTrustedDeviceHash(c echo.Context, hash string) {
	c.Set(string(keyTrustedDeviceHash), hash)
}

// GetTrustedDeviceHash returns the hash of the presented trusted-device token, or "".
func GetTrustedDeviceHash(c echo.Context) string {
	return get[string](c, keyTrustedDeviceHash)
}

// WithLogger returns ctx carrying a request-scoped logger for the usecase layer.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// GetLoggerOrDefault returns the request-scoped logger, or fallback outside a request.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(keyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return fallback
}
