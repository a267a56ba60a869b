// Package otp issues and verifies the one-time passwords that gate signup and untrusted logins.
package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"time"

	"ownerauth/config"
	"ownerauth/internal/domain/entity"
	"ownerauth/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const generatedKeyBytes = 32

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// challengeClaims is the signed ticket the client carries between requesting and submitting a code.
type challengeClaims struct {
	Purpose service.OTPPurpose `json:"pur"`
	jwt.RegisteredClaims
}

// totpService derives a per-challenge TOTP secret so codes never have to be stored.
type totpService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	digits     otp.Digits
	clock      service.Clock
}

// NewTOTPService is the constructor for totpService.
// Without a configured secret a random one is generated, so outstanding challenges do not survive a restart.
func NewTOTPService(cfg *config.Config, clock service.Clock) (service.OTPService, error) {
	key := []byte(cfg.OTP.Secret)
	if len(key) == 0 {
		key = make([]byte, generatedKeyBytes)
		if _, err := rand.Read(key); err != nil {
			return nil, errors.Wrap(err, "failed to generate otp signing key")
		}
	}

	return newTOTPService(key, cfg.OTP.Issuer, cfg.OTP.TTL, cfg.OTP.Digits, clock)
}

func newTOTPService(key []byte, issuer string, ttl time.Duration, digits int, clock service.Clock) (*totpService, error) {
	if ttl < time.Second {
		return nil, errors.Errorf("otp ttl must be at least one second, got %s", ttl)
	}

	var d otp.Digits
	switch digits {
	case 6:
		d = otp.DigitsSix
	case 8:
		d = otp.DigitsEight
	default:
		return nil, errors.Errorf("unsupported otp digits %d", digits)
	}

	return &totpService{
		signingKey: key,
		issuer:     issuer,
		ttl:        ttl,
		digits:     d,
		clock:      clock,
	}, nil
}

// Issue creates a code for the email and purpose together with the ticket that proves it was issued.
func (s *totpService) Issue(email string, purpose service.OTPPurpose) (*service.OTPChallenge, error) {
	if !purpose.IsValid() {
		return nil, errors.Errorf("unknown otp purpose %q", purpose)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	subject := entity.NormalizeEmail(email)

	claims := challengeClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	ticket, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign otp challenge")
	}

	code, err := totp.GenerateCodeCustom(s.secretFor(subject, purpose, claims.ID), now, s.validateOpts())
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate otp code")
	}

	return &service.OTPChallenge{
		Code:      code,
		Challenge: ticket,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0).UTC(),
	}, nil
}

// Verify checks the ticket signature and expiry, then the code against the secret the ticket names.
func (s *totpService) Verify(email string, purpose service.OTPPurpose, challenge, code string) bool {
	if challenge == "" || code == "" {
		return false
	}

	subject := entity.NormalizeEmail(email)

	var claims challengeClaims
	_, err := jwt.ParseWithClaims(challenge, &claims,
		func(*jwt.Token) (any, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithSubject(subject),
	)
	if err != nil || claims.Purpose != purpose || claims.ID == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, s.secretFor(subject, purpose, claims.ID), s.clock.Now(), s.validateOpts())

	return err == nil && ok
}

func (s *totpService) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.ttl / time.Second),
		Skew:      1,
		Digits:    s.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// secretFor binds the TOTP secret to the email, the purpose and the ticket id.
func (s *totpService) secretFor(subject string, purpose service.OTPPurpose, id string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(string(purpose) + "|" + subject + "|" + id))

	return secretEncoding.EncodeToString(mac.Sum(nil))
}
