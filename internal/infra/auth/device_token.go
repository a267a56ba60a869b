package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	domainerrors "ownerauth/internal/domain/errors"
	"ownerauth/internal/domain/service"

	"github.com/pkg/errors"
)

const deviceTokenBytes = 32

// deviceTokenIssuer implements DeviceTokenIssuer with random base64url tokens hashed by SHA-256.
type deviceTokenIssuer struct{}

// NewDeviceTokenIssuer is the constructor for deviceTokenIssuer.
func NewDeviceTokenIssuer() service.DeviceTokenIssuer {
	return &deviceTokenIssuer{}
}

// Issue generates a raw token and its stored hash.
func (i *deviceTokenIssuer) Issue() (string, string, error) {
	raw := make([]byte, deviceTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", errors.Wrap(err, "failed to generate device token")
	}

	token := base64.RawURLEncoding.EncodeToString(raw)

	return token, hashDeviceToken(raw), nil
}

// Hash validates the raw token shape and returns its hash.
func (i *deviceTokenIssuer) Hash(rawToken string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(rawToken)
	if err != nil || len(raw) != deviceTokenBytes {
		return "", errors.WithStack(domainerrors.ErrValidation.WithDetails("malformed trusted device token"))
	}

	return hashDeviceToken(raw), nil
}

// ValidateHash accepts only lower-case hex SHA-256 digests.
func (i *deviceTokenIssuer) ValidateHash(tokenHash string) error {
	if len(tokenHash) != sha256.Size*2 {
		return errors.WithStack(domainerrors.ErrValidation.WithDetails("malformed trusted device token hash"))
	}
	for _, c := range tokenHash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return errors.WithStack(domainerrors.ErrValidation.WithDetails("malformed trusted device token hash"))
		}
	}

	return nil
}

func hashDeviceToken(raw []byte) string {
	sum := sha256.Sum256(raw)

	return hex.EncodeToString(sum[:])
}
