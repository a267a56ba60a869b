package service

// DeviceTokenIssuer creates raw trusted-device tokens and derives the hash that is stored.
type DeviceTokenIssuer interface {
	// Issue returns a new raw token for the client and its stored hash.
	Issue() (rawToken string, tokenHash string, err error)

	// Hash derives the stored hash of a raw token. Malformed tokens fail with a validation error.
	Hash(rawToken string) (string, error)

	// ValidateHash checks that a value has the shape of a stored hash.
	ValidateHash(tokenHash string) error
}
