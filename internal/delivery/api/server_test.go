package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ownerauth/config"
	apimiddleware "ownerauth/internal/delivery/api/middleware"
	"ownerauth/internal/delivery/api/router"
	"ownerauth/internal/delivery/api/router/handler"
	"ownerauth/internal/domain/service"
	"ownerauth/internal/infra/auth"
	"ownerauth/internal/infra/otp"
	"ownerauth/internal/infra/persistence/jsonfile"
	"ownerauth/internal/infra/ratelimit"
	mockService "ownerauth/internal/mocks/service"
	"ownerauth/internal/testutil"
	"ownerauth/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	ownerEmail    = "a@example.com"
	ownerPassword = "Passw0rd1"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type apiFixtures struct {
	e     *echo.Echo
	clock *testutil.FakeClock
	cfg   *config.Config

	mu    sync.Mutex
	codes []service.OTPMessage
}

func createAPIFixtures(t *testing.T, otpEnabled bool) *apiFixtures {
	t.Helper()

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.OTP.Enabled = otpEnabled
	cfg.OTP.Secret = "test-otp-secret"

	f := &apiFixtures{clock: testutil.NewFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)), cfg: cfg}
	logger := testutil.MakeNoopLogger()

	store := jsonfile.NewStore(filepath.Join(t.TempDir(), "auth-store.json"), f.clock, cfg.Auth.RateLimit.Window, logger)
	require.NoError(t, store.Open(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	hasher, err := auth.NewScryptHasherWithParams(auth.ScryptParams{N: 1024, R: 8, P: 1, MaxMemory: 32 << 20}, "")
	require.NoError(t, err)
	tokens := auth.NewDeviceTokenIssuer()
	limiter := ratelimit.NewAttemptLimiter(cfg)
	codes, err := otp.NewTOTPService(cfg, f.clock)
	require.NoError(t, err)

	sender := mockService.NewMockOTPSender(t)
	sender.EXPECT().Send(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, msg service.OTPMessage) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.codes = append(f.codes, msg)

			return nil
		}).
		Maybe()

	sessions := impl.NewSessionService(impl.SessionServiceParams{Store: store, Logger: logger})
	devices := impl.NewDeviceService(impl.DeviceServiceParams{Store: store, Tokens: tokens, Clock: f.clock, Config: cfg, Logger: logger})
	authUC := impl.NewAuthService(impl.AuthServiceParams{
		Store: store, Hasher: hasher, Limiter: limiter, Devices: tokens, Clock: f.clock, Config: cfg, Logger: logger,
	})
	otpUC := impl.NewOTPService(impl.OTPServiceParams{
		Codes: codes, Sender: sender, Store: store, Limiter: limiter, Devices: devices, Clock: f.clock, Config: cfg, Logger: logger,
	})

	f.e = NewEcho(cfg, logger, router.RouterParams{
		AuthHandler: handler.NewAuthHandler(handler.AuthHandlerParams{
			AuthUC: authUC, SessionUC: sessions, DeviceUC: devices, OTPUC: otpUC, Tokens: tokens, Logger: logger,
		}),
		AccountHandler: handler.NewAccountHandler(handler.AccountHandlerParams{
			AccountUC: impl.NewAccountService(impl.AccountServiceParams{Store: store, Logger: logger}),
			Logger:    logger,
		}),
		AuthMiddleware: apimiddleware.NewAuthMiddleware(apimiddleware.AuthMiddlewareParams{
			Sessions: sessions, Tokens: tokens, Config: cfg,
		}),
	})

	return f
}

func (f *apiFixtures) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}

	return rec, env
}

func (f *apiFixtures) lastCode(t *testing.T) service.OTPMessage {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.codes)

	return f.codes[len(f.codes)-1]
}

func bearer(token string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + token}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(raw, &out))

	return out
}

func (f *apiFixtures) signup(t *testing.T) handler.SessionResponse {
	t.Helper()

	rec, env := f.do(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":     ownerEmail,
		"password":  ownerPassword,
		"full_name": "Ada Owner",
		"timezone":  "Europe/Berlin",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode[handler.SessionResponse](t, env.Data)
}

func TestAPI_HealthAndStatus(t *testing.T) {
	f := createAPIFixtures(t, false)

	rec, env := f.do(t, http.MethodGet, "/health", nil, map[string]string{"X-Request-Id": "req-1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", env.Meta.RequestID)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	_, env = f.do(t, http.MethodGet, "/auth/status", nil, nil)
	assert.JSONEq(t, `{"has_owner":false,"otp_enabled":false}`, string(env.Data))

	f.signup(t)
	_, env = f.do(t, http.MethodGet, "/auth/status", nil, nil)
	assert.JSONEq(t, `{"has_owner":true,"otp_enabled":false}`, string(env.Data))
}

func TestAPI_SignupTwiceConflicts(t *testing.T) {
	f := createAPIFixtures(t, false)
	f.signup(t)

	rec, env := f.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": "b@example.com", "password": "Another123"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OWNER_ALREADY_EXISTS", env.Error.Code)
}

func TestAPI_AuthenticatedRoutesRequireSession(t *testing.T) {
	f := createAPIFixtures(t, false)
	f.signup(t)

	for _, path := range []string{"/auth/session", "/account"} {
		rec, env := f.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

		rec, _ = f.do(t, http.MethodGet, path, nil, bearer("made-up"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAPI_LoginRateLimitScenario(t *testing.T) {
	f := createAPIFixtures(t, false)
	f.signup(t)

	for range 5 {
		rec, env := f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": ownerEmail, "password": "wrong-pass"}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	}

	rec, env := f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": ownerEmail, "password": ownerPassword}, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", env.Error.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"retry_after_sec":900}`, string(env.Error.Details))

	f.clock.Advance(15*time.Minute + time.Second)
	rec, _ = f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": " A@EXAMPLE.COM ", "password": ownerPassword}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_AccountSettings(t *testing.T) {
	f := createAPIFixtures(t, false)
	session := f.signup(t)

	rec, env := f.do(t, http.MethodGet, "/account", nil, bearer(session.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"full_name":"Ada Owner","email":"a@example.com","role":"Owner","timezone":"Europe/Berlin"}`, string(env.Data))

	rec, env = f.do(t, http.MethodPut, "/account", map[string]string{
		"full_name": "Grace",
		"timezone":  "Asia/Tokyo",
		"email":     "evil@example.com",
		"role":      "Admin",
	}, bearer(session.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"full_name":"Grace","email":"a@example.com","role":"Owner","timezone":"Asia/Tokyo"}`, string(env.Data))

	rec, env = f.do(t, http.MethodPut, "/account", map[string]string{"timezone": "Nowhere/Land"}, bearer(session.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), `"field":"timezone"`)
}

func TestAPI_ChangePasswordAndLogoutAll(t *testing.T) {
	f := createAPIFixtures(t, false)
	first := f.signup(t)

	rec, env := f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": ownerEmail, "password": ownerPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[handler.SessionResponse](t, env.Data)

	rec, _ = f.do(t, http.MethodPost, "/auth/logout-all", nil, bearer(second.Token))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/auth/session", nil, bearer(first.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = f.do(t, http.MethodGet, "/auth/session", nil, bearer(second.Token))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = f.do(t, http.MethodPost, "/auth/password", map[string]string{
		"current_password": "wrong-one",
		"new_password":     "Passw0rd2!",
	}, bearer(second.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INCORRECT_PASSWORD", env.Error.Code)

	rec, env = f.do(t, http.MethodPost, "/auth/password", map[string]string{
		"current_password": ownerPassword,
		"new_password":     "short",
	}, bearer(second.Token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PASSWORD_TOO_SHORT", env.Error.Code)

	rec, env = f.do(t, http.MethodPost, "/auth/password", map[string]string{
		"current_password": ownerPassword,
		"new_password":     "Passw0rd2!",
	}, bearer(second.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode[handler.SessionResponse](t, env.Data)

	rec, _ = f.do(t, http.MethodGet, "/auth/session", nil, bearer(second.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = f.do(t, http.MethodGet, "/auth/session", nil, bearer(rotated.Token))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/auth/logout", nil, bearer(rotated.Token))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = f.do(t, http.MethodGet, "/auth/session", nil, bearer(rotated.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_OTPAndTrustedDeviceFlow(t *testing.T) {
	f := createAPIFixtures(t, true)
	header := f.cfg.Auth.TrustedDeviceHeader

	// Signup needs a signup code.
	rec, env := f.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": ownerEmail, "password": ownerPassword}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "OTP_REQUIRED", env.Error.Code)

	rec, env = f.do(t, http.MethodPost, "/auth/otp", map[string]string{"email": ownerEmail, "purpose": "signup"}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	challenge := decode[map[string]any](t, env.Data)["challenge"].(string)

	rec, _ = f.do(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":         ownerEmail,
		"password":      ownerPassword,
		"otp_challenge": challenge,
		"otp_code":      f.lastCode(t).Code,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Login from a new device needs a login code and asks to be trusted.
	rec, env = f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": ownerEmail, "password": ownerPassword}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "OTP_REQUIRED", env.Error.Code)

	_, env = f.do(t, http.MethodPost, "/auth/otp", map[string]string{"email": ownerEmail, "purpose": "login"}, nil)
	challenge = decode[map[string]any](t, env.Data)["challenge"].(string)

	rec, env = f.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email":         ownerEmail,
		"password":      ownerPassword,
		"otp_challenge": challenge,
		"otp_code":      f.lastCode(t).Code,
		"trust_device":  true,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bound := decode[handler.SessionResponse](t, env.Data)
	require.NotEmpty(t, bound.TrustedDeviceToken)

	withDevice := bearer(bound.Token)
	withDevice[header] = bound.TrustedDeviceToken

	// The bound session only works together with its device token.
	rec, _ = f.do(t, http.MethodGet, "/auth/session", nil, withDevice)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(t, http.MethodGet, "/auth/session", nil, bearer(bound.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A trusted device skips the code.
	rec, env = f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": ownerEmail, "password": ownerPassword},
		map[string]string{header: bound.TrustedDeviceToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[handler.SessionResponse](t, env.Data).TrustedDeviceToken)

	// Malformed device tokens are validation errors.
	rec, env = f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": ownerEmail, "password": ownerPassword},
		map[string]string{header: "!!not-base64!!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	// Clearing trusted devices brings the code back.
	rec, _ = f.do(t, http.MethodDelete, "/auth/trusted-devices", nil, withDevice)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec, env = f.do(t, http.MethodPost, "/auth/login", map[string]string{"email": ownerEmail, "password": ownerPassword},
		map[string]string{header: bound.TrustedDeviceToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "OTP_REQUIRED", env.Error.Code)
}

func TestAPI_WrongOTPIsRejected(t *testing.T) {
	f := createAPIFixtures(t, true)

	_, env := f.do(t, http.MethodPost, "/auth/otp", map[string]string{"email": ownerEmail, "purpose": "signup"}, nil)
	challenge := decode[map[string]any](t, env.Data)["challenge"].(string)

	wrong := "000000"
	if f.lastCode(t).Code == wrong {
		wrong = "111111"
	}

	rec, env := f.do(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":         ownerEmail,
		"password":      ownerPassword,
		"otp_challenge": challenge,
		"otp_code":      wrong,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_OTP", env.Error.Code)

	rec, env = f.do(t, http.MethodPost, "/auth/otp", map[string]string{"email": ownerEmail, "purpose": "reset"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}
