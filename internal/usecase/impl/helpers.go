// Package impl contains the implementation of the application's business logic.
package impl

import (
	"time"

	"ownerauth/internal/domain/entity"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultTimezone = "UTC"

var fieldValidator = validator.New(validator.WithRequiredStructEnabled())

func isValidEmail(email string) bool {
	return fieldValidator.Var(email, "required,email") == nil
}

func isValidTimezone(tz string) bool {
	return fieldValidator.Var(tz, "required,timezone") == nil
}

// newSession builds a session record starting at now. An empty deviceHash leaves it unbound.
func newSession(now time.Time, ttl time.Duration, deviceHash string) entity.SessionRecord {
	return entity.SessionRecord{
		Token:                  uuid.NewString(),
		CreatedAt:              now.UnixMilli(),
		ExpiresAt:              now.Add(ttl).UnixMilli(),
		TrustedDeviceTokenHash: deviceHash,
	}
}
