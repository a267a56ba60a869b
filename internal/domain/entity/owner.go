// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "strings"

// OwnerRecord is the single administrative identity managed by the service.
// Email and Role never change once the record is created.
type OwnerRecord struct {
	Email        string `json:"email"`        // Case-normalized login identifier.
	FullName     string `json:"fullName"`     // Display name shown in the admin UI.
	Role         Role   `json:"role"`         // Always RoleOwner.
	Timezone     string `json:"timezone"`     // IANA zone name, e.g. "Europe/Berlin".
	PasswordHash string `json:"passwordHash"` // Hex-encoded derived key.
	PasswordSalt string `json:"passwordSalt"` // Hex-encoded random salt.
	CreatedAt    int64  `json:"createdAt"`    // Epoch milliseconds.
}

// AccountSettings is the externally visible projection of the owner record.
type AccountSettings struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Timezone string `json:"timezone"`
}

// Settings returns the account settings view of the owner.
func (o *OwnerRecord) Settings() *AccountSettings {
	return &AccountSettings{
		FullName: o.FullName,
		Email:    o.Email,
		Role:     o.Role,
		Timezone: o.Timezone,
	}
}

// NormalizeEmail lower-cases and trims an email so lookups are case and whitespace insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
