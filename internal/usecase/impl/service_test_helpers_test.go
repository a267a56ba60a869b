package impl

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ownerauth/config"
	"ownerauth/internal/domain/entity"
	"ownerauth/internal/domain/service"
	"ownerauth/internal/infra/auth"
	"ownerauth/internal/infra/persistence/jsonfile"
	"ownerauth/internal/infra/ratelimit"
	"ownerauth/internal/testutil"
	"ownerauth/internal/usecase"

	"github.com/stretchr/testify/require"
)

const (
	ownerEmail    = "a@example.com"
	ownerPassword = "Passw0rd1"
)

var epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// cheapParams keeps derivations fast; production uses N=32768.
var cheapParams = auth.ScryptParams{N: 1024, R: 8, P: 1, MaxMemory: 32 * 1024 * 1024}

// authFixtures wires the real store, hasher and limiter around a fake clock.
type authFixtures struct {
	cfg      *config.Config
	clock    *testutil.FakeClock
	store    *jsonfile.Store
	hasher   service.PasswordHasher
	tokens   service.DeviceTokenIssuer
	limiter  service.AttemptLimiter
	auth     usecase.AuthUsecase
	sessions usecase.SessionUsecase
	devices  usecase.DeviceUsecase
	account  usecase.AccountUsecase
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	return cfg
}

func createAuthFixtures(t *testing.T) *authFixtures {
	t.Helper()

	cfg := newTestConfig()
	clock := testutil.NewFakeClock(epoch)
	logger := testutil.MakeNoopLogger()

	store := jsonfile.NewStore(filepath.Join(t.TempDir(), "auth-store.json"), clock, cfg.Auth.RateLimit.Window, logger)
	require.NoError(t, store.Open(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	hasher, err := auth.NewScryptHasherWithParams(cheapParams, "")
	require.NoError(t, err)

	tokens := auth.NewDeviceTokenIssuer()
	limiter := ratelimit.NewAttemptLimiter(cfg)

	return &authFixtures{
		cfg:     cfg,
		clock:   clock,
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		limiter: limiter,
		auth: NewAuthService(AuthServiceParams{
			Store:   store,
			Hasher:  hasher,
			Limiter: limiter,
			Devices: tokens,
			Clock:   clock,
			Config:  cfg,
			Logger:  logger,
		}),
		sessions: NewSessionService(SessionServiceParams{Store: store, Logger: logger}),
		devices: NewDeviceService(DeviceServiceParams{
			Store:  store,
			Tokens: tokens,
			Clock:  clock,
			Config: cfg,
			Logger: logger,
		}),
		account: NewAccountService(AccountServiceParams{Store: store, Logger: logger}),
	}
}

// signupOwner creates the default owner and returns its first session.
func (f *authFixtures) signupOwner(t *testing.T) *entity.SessionPayload {
	t.Helper()

	session, err := f.auth.Signup(context.Background(), &usecase.SignupInput{
		Email:    ownerEmail,
		Password: ownerPassword,
		FullName: "Ada Owner",
		Timezone: "Europe/Berlin",
	})
	require.NoError(t, err)

	return session
}

func (f *authFixtures) login(password string) (*entity.SessionPayload, error) {
	return f.auth.StartLogin(context.Background(), &usecase.LoginInput{Email: ownerEmail, Password: password})
}

func (f *authFixtures) snapshot(t *testing.T) *entity.AuthStoreRecord {
	t.Helper()

	record, err := f.store.Snapshot(context.Background())
	require.NoError(t, err)

	return record
}

func (f *authFixtures) verify(t *testing.T, token string) bool {
	t.Helper()

	ok, err := f.sessions.VerifySession(context.Background(), token)
	require.NoError(t, err)

	return ok
}

func (f *authFixtures) newDeviceHash(t *testing.T) string {
	t.Helper()

	_, hash, err := f.tokens.Issue()
	require.NoError(t, err)

	return hash
}
