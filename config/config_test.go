package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, defaultStorePath, cfg.Store.Path)
	assert.Equal(t, 32768, cfg.Password.N)
	assert.Equal(t, 8, cfg.Password.R)
	assert.Equal(t, 1, cfg.Password.P)
	assert.Equal(t, 10*24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TrustedDeviceTTL)
	assert.Equal(t, 8, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 5, cfg.Auth.RateLimit.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Auth.RateLimit.Window)
	assert.Equal(t, 15*time.Minute, cfg.Auth.RateLimit.Block)
	assert.Equal(t, OTPDeliveryConsole, cfg.OTP.Delivery)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsOTPWithoutSecret(t *testing.T) {
	cfg := &Config{OTP: &OTPConfig{Enabled: true}}
	cfg.ApplyDefaults()

	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsIncompleteSMTP(t *testing.T) {
	cfg := &Config{OTP: &OTPConfig{Delivery: OTPDeliverySMTP}}
	cfg.ApplyDefaults()

	assert.Error(t, cfg.Validate())
}

func TestLoadWithEnv_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	yamlBody := "store:\n  path: from-yaml.json\nauth:\n  rateLimit:\n    maxAttempts: 3\n    window: 1m\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(yamlBody), 0o600))

	t.Chdir(dir)
	t.Setenv("STORE_PATH", "from-env.json")

	cfg, err := LoadWithEnv[Config]("test")
	require.NoError(t, err)

	assert.Equal(t, "from-env.json", cfg.Store.Path)
	assert.Equal(t, 3, cfg.Auth.RateLimit.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Auth.RateLimit.Window)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadWithEnv[Config]("absent")
	assert.Error(t, err)
}
