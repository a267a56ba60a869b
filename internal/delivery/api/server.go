// Package api serves the owner authentication HTTP API.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"ownerauth/config"
	"ownerauth/internal/delivery"
	apimiddleware "ownerauth/internal/delivery/api/middleware"
	"ownerauth/internal/delivery/api/router"
	"ownerauth/internal/delivery/api/validator"
	deliverycontext "ownerauth/internal/delivery/context"
	"ownerauth/internal/delivery/middleware"
	"ownerauth/internal/domain/lifecycle"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/net/http2"
)

type apiServer struct {
	addr   string
	h2     http2.Server
	logger *slog.Logger
	echo   *echo.Echo
}

// ServerParams holds dependencies for HTTP server, injected by Fx.
type ServerParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	Logger       *slog.Logger
	RouterParams router.RouterParams
}

// NewServer builds the API delivery and registers its shutdown with the fx lifecycle.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &apiServer{
		addr:   net.JoinHostPort("0.0.0.0", strconv.Itoa(params.Cfg.HTTP.Port)),
		h2:     http2.Server{IdleTimeout: params.Cfg.HTTP.Timeouts.IdleTimeout},
		logger: params.Logger,
		echo:   NewEcho(params.Cfg, params.Logger, params.RouterParams),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// NewEcho returns a fully routed echo instance. Tests drive it through ServeHTTP.
func NewEcho(cfg *config.Config, logger *slog.Logger, routerParams router.RouterParams) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	configureServer(e.Server, cfg)

	e.Use(middlewareChain(cfg, logger)...)
	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(logger).HandleHTTPError
	e.Validator = validator.New()

	router.NewRouter(routerParams).RegisterRoutes(e)

	return e
}

func configureServer(s *http.Server, cfg *config.Config) {
	s.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	s.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	s.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	s.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout
}

// middlewareChain is order sensitive: panics are recovered outermost, and the request id
// must exist before the logger runs. Throttling sits last so rejected requests are still logged.
func middlewareChain(cfg *config.Config, logger *slog.Logger) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		echomiddleware.Recover(),
		middleware.NewRequestIDMiddleware(logger).Process,
		middleware.NewLoggerMiddleware(logger, cfg).Handle,
		echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:  []string{"*"},
			AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, cfg.Auth.TrustedDeviceHeader},
			ExposeHeaders: []string{echo.HeaderRetryAfter, deliverycontext.HeaderXRequestID},
		}),
		echomiddleware.BodyLimit(cfg.HTTP.MaxRequestBodySize),
		apimiddleware.Throttle(cfg.HTTP.Throttle),
	}
}

func (s *apiServer) Serve(_ context.Context) error {
	s.logger.Info("Starting API HTTP server", slog.String("host_port", s.addr))

	if err := s.echo.StartH2CServer(s.addr, &s.h2); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "api server stopped")
	}

	return nil
}

func (s *apiServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down API HTTP server")

	return errors.WithStack(s.echo.Shutdown(shutdownCtx))
}
