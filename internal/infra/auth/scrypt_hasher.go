// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"ownerauth/config"
	"ownerauth/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	derivedKeyLength = 64
	saltLength       = 16
)

// ScryptParams is one scrypt cost configuration.
type ScryptParams struct {
	N         int
	R         int
	P         int
	MaxMemory int
}

// LegacyScryptParams is the fixed cost older hashes were produced with.
var LegacyScryptParams = ScryptParams{N: 16384, R: 8, P: 1, MaxMemory: 32 * 1024 * 1024}

// Validate checks the parameters are usable and fit the memory ceiling.
func (p ScryptParams) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return errors.Errorf("scrypt N must be a power of two greater than 1, got %d", p.N)
	}
	if p.R <= 0 || p.P <= 0 {
		return errors.Errorf("scrypt r and p must be positive, got r=%d p=%d", p.R, p.P)
	}
	if required := 128 * p.N * p.R; required > p.MaxMemory {
		return errors.Errorf("scrypt needs %d bytes but maxMemory is %d", required, p.MaxMemory)
	}

	return nil
}

// scryptHasher is a concrete implementation of the PasswordHasher interface using scrypt.
type scryptHasher struct {
	current ScryptParams
	legacy  ScryptParams
	pepper  string
}

// NewScryptHasher is the constructor used by the application, reading cost and pepper from config.
func NewScryptHasher(cfg *config.Config) (service.PasswordHasher, error) {
	return NewScryptHasherWithParams(ScryptParams{
		N:         cfg.Password.N,
		R:         cfg.Password.R,
		P:         cfg.Password.P,
		MaxMemory: cfg.Password.MaxMemory,
	}, cfg.Password.Pepper)
}

// NewScryptHasherWithParams builds a hasher with an explicit current parameter set.
func NewScryptHasherWithParams(current ScryptParams, pepper string) (service.PasswordHasher, error) {
	if err := current.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid current password parameters")
	}

	return &scryptHasher{
		current: current,
		legacy:  LegacyScryptParams,
		pepper:  pepper,
	}, nil
}

// Hash derives a digest under the current parameters with a fresh random salt.
func (h *scryptHasher) Hash(password string) (service.PasswordDigest, error) {
	raw := make([]byte, saltLength)
	if _, err := rand.Read(raw); err != nil {
		return service.PasswordDigest{}, errors.Wrap(err, "failed to generate salt")
	}
	salt := hex.EncodeToString(raw)

	key, err := h.derive(password, salt, h.current)
	if err != nil {
		return service.PasswordDigest{}, err
	}

	return service.PasswordDigest{Hash: hex.EncodeToString(key), Salt: salt}, nil
}

// Verify re-derives the key under the requested parameter set and compares in constant time.
func (h *scryptHasher) Verify(password string, digest service.PasswordDigest, params service.ParamSet) bool {
	var set ScryptParams
	switch params {
	case service.ParamSetCurrent:
		set = h.current
	case service.ParamSetLegacy:
		set = h.legacy
	default:
		return false
	}

	expected, err := hex.DecodeString(digest.Hash)
	if err != nil {
		return false
	}
	if _, err := hex.DecodeString(digest.Salt); err != nil || digest.Salt == "" {
		return false
	}

	derived, err := h.derive(password, digest.Salt, set)
	if err != nil {
		return false
	}

	// ConstantTimeCompare returns 0 for unequal lengths without inspecting content.
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

// derive runs scrypt over password+pepper. The hex salt string itself is the KDF salt input.
func (h *scryptHasher) derive(password, salt string, p ScryptParams) ([]byte, error) {
	key, err := scrypt.Key([]byte(password+h.pepper), []byte(salt), p.N, p.R, p.P, derivedKeyLength)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive password key")
	}

	return key, nil
}
