package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "16KB"
	defaultStorePath          = "data/auth-store.json"
	defaultServiceName        = "ownerauth"

	defaultScryptN         = 32768
	defaultScryptR         = 8
	defaultScryptP         = 1
	defaultScryptMaxMemory = 64 * 1024 * 1024

	defaultSessionTTL        = 10 * 24 * time.Hour
	defaultTrustedDeviceTTL  = 30 * 24 * time.Hour
	defaultMinPasswordLength = 8
	defaultMaxAttempts       = 5
	defaultAttemptWindow     = 10 * time.Minute
	defaultAttemptBlock      = 15 * time.Minute
	defaultDeviceHeader      = "X-Trusted-Device"

	defaultOTPDigits = 6
	defaultOTPTTL    = 5 * time.Minute
	defaultOTPIssuer = "ownerauth"

	OTPDeliveryConsole = "console"
	OTPDeliverySMTP    = "smtp"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
		Throttle *ThrottleConfig `json:"throttle" yaml:"throttle"`
	} `json:"http" yaml:"http"`

	// Store configuration for the JSON record file
	Store *StoreConfig `json:"store" yaml:"store"`

	// Password configuration for the current key-derivation parameters
	Password *PasswordConfig `json:"password" yaml:"password"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// OTP configuration for the second factor
	OTP *OTPConfig `json:"otp" yaml:"otp"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// ThrottleConfig limits request rate per client IP at the HTTP edge. A zero rate disables it.
type ThrottleConfig struct {
	Rate      float64       `json:"rate" yaml:"rate"`
	Burst     int           `json:"burst" yaml:"burst"`
	ExpiresIn time.Duration `json:"expiresIn" yaml:"expiresIn"`
}

// StoreConfig defines where the auth record lives
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// PasswordConfig defines the current scrypt cost and the optional pepper
type PasswordConfig struct {
	N         int    `json:"n" yaml:"n"`
	R         int    `json:"r" yaml:"r"`
	P         int    `json:"p" yaml:"p"`
	MaxMemory int    `json:"maxMemory" yaml:"maxMemory"`
	Pepper    string `json:"pepper" yaml:"pepper"`
}

// AuthConfig defines session, trusted device and rate limit settings
type AuthConfig struct {
	SessionTTL          time.Duration    `json:"sessionTTL" yaml:"sessionTTL"`
	TrustedDeviceTTL    time.Duration    `json:"trustedDeviceTTL" yaml:"trustedDeviceTTL"`
	MinPasswordLength   int              `json:"minPasswordLength" yaml:"minPasswordLength"`
	TrustedDeviceHeader string           `json:"trustedDeviceHeader" yaml:"trustedDeviceHeader"`
	RateLimit           *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
}

// RateLimitConfig defines the sliding window for failed attempts
type RateLimitConfig struct {
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
	Window      time.Duration `json:"window" yaml:"window"`
	Block       time.Duration `json:"block" yaml:"block"`
}

// OTPConfig defines one-time password generation and delivery
type OTPConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Issuer   string        `json:"issuer" yaml:"issuer"`
	Secret   string        `json:"secret" yaml:"secret"`
	Digits   int           `json:"digits" yaml:"digits"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
	Delivery string        `json:"delivery" yaml:"delivery"`
	SMTP     *SMTPConfig   `json:"smtp" yaml:"smtp"`
}

// SMTPConfig defines the mail relay used for OTP delivery
type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate

			break
		}
	}

	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Environment variables override YAML keys, e.g. PASSWORD_MAXMEMORY -> password.maxMemory
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills every unset value with its default.
func (cfg *Config) ApplyDefaults() {
	if cfg.Env.ServiceName == "" {
		cfg.Env.ServiceName = defaultServiceName
	}
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.HTTP.Throttle == nil {
		cfg.HTTP.Throttle = &ThrottleConfig{}
	}

	if cfg.Store == nil {
		cfg.Store = &StoreConfig{}
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath
	}

	if cfg.Password == nil {
		cfg.Password = &PasswordConfig{}
	}
	cfg.Password.N = orDefault(cfg.Password.N, defaultScryptN)
	cfg.Password.R = orDefault(cfg.Password.R, defaultScryptR)
	cfg.Password.P = orDefault(cfg.Password.P, defaultScryptP)
	cfg.Password.MaxMemory = orDefault(cfg.Password.MaxMemory, defaultScryptMaxMemory)

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	cfg.Auth.SessionTTL = orDefault(cfg.Auth.SessionTTL, defaultSessionTTL)
	cfg.Auth.TrustedDeviceTTL = orDefault(cfg.Auth.TrustedDeviceTTL, defaultTrustedDeviceTTL)
	cfg.Auth.MinPasswordLength = orDefault(cfg.Auth.MinPasswordLength, defaultMinPasswordLength)
	cfg.Auth.TrustedDeviceHeader = orDefault(cfg.Auth.TrustedDeviceHeader, defaultDeviceHeader)
	if cfg.Auth.RateLimit == nil {
		cfg.Auth.RateLimit = &RateLimitConfig{}
	}
	cfg.Auth.RateLimit.MaxAttempts = orDefault(cfg.Auth.RateLimit.MaxAttempts, defaultMaxAttempts)
	cfg.Auth.RateLimit.Window = orDefault(cfg.Auth.RateLimit.Window, defaultAttemptWindow)
	cfg.Auth.RateLimit.Block = orDefault(cfg.Auth.RateLimit.Block, defaultAttemptBlock)

	if cfg.OTP == nil {
		cfg.OTP = &OTPConfig{}
	}
	cfg.OTP.Issuer = orDefault(cfg.OTP.Issuer, defaultOTPIssuer)
	cfg.OTP.Digits = orDefault(cfg.OTP.Digits, defaultOTPDigits)
	cfg.OTP.TTL = orDefault(cfg.OTP.TTL, defaultOTPTTL)
	cfg.OTP.Delivery = orDefault(cfg.OTP.Delivery, OTPDeliveryConsole)
}

// Validate rejects configurations the service cannot run with.
func (cfg *Config) Validate() error {
	if cfg.OTP.Enabled && strings.TrimSpace(cfg.OTP.Secret) == "" {
		return errors.New("otp.secret must be set when otp is enabled")
	}
	if cfg.OTP.Digits != 6 && cfg.OTP.Digits != 8 {
		return errors.Errorf("otp.digits must be 6 or 8, got %d", cfg.OTP.Digits)
	}
	switch cfg.OTP.Delivery {
	case OTPDeliveryConsole:
	case OTPDeliverySMTP:
		if cfg.OTP.SMTP == nil || cfg.OTP.SMTP.Host == "" || cfg.OTP.SMTP.From == "" {
			return errors.New("otp.smtp.host and otp.smtp.from are required for smtp delivery")
		}
	default:
		return errors.Errorf("unknown otp.delivery %q", cfg.OTP.Delivery)
	}
	if cfg.Auth.MinPasswordLength < 1 {
		return errors.New("auth.minPasswordLength must be positive")
	}

	return nil
}

func orDefault[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}

	return value
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
