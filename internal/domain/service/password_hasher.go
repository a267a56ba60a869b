// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// ParamSet names one of the key-derivation cost configurations a hash may have been produced with.
type ParamSet string

const (
	// ParamSetCurrent is the configured cost used for all new hashes.
	ParamSetCurrent ParamSet = "current"
	// ParamSetLegacy is the older, cheaper cost kept only to verify and upgrade existing hashes.
	ParamSetLegacy ParamSet = "legacy"
)

// VerifyOrder is the fixed order in which parameter sets are tried on login.
var VerifyOrder = []ParamSet{ParamSetCurrent, ParamSetLegacy}

// PasswordDigest is a stored password hash together with its salt, both hex-encoded.
type PasswordDigest struct {
	Hash string
	Salt string
}

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying key-derivation function, keeping the domain pure.
type PasswordHasher interface {
	// Hash derives a new digest from a plaintext password under the current parameter set.
	Hash(password string) (PasswordDigest, error)

	// Verify reports whether the password matches the digest under the given parameter set.
	// Malformed digests never match.
	Verify(password string, digest PasswordDigest, params ParamSet) bool
}
