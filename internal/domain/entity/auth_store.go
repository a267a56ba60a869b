package entity

import (
	"maps"
	"slices"
	"time"
)

// AuthStoreRecord is the root aggregate persisted as a single JSON document.
type AuthStoreRecord struct {
	Owner          *OwnerRecord            `json:"owner,omitempty"`
	Sessions       []SessionRecord         `json:"sessions"`
	TrustedDevices []TrustedDeviceRecord   `json:"trustedDevices"`
	AttemptState   map[string]AttemptState `json:"attemptState"`
	UpdatedAt      int64                   `json:"updatedAt"` // Epoch milliseconds of the last write.
}

// NewAuthStoreRecord returns an empty record with no owner.
func NewAuthStoreRecord() *AuthStoreRecord {
	return &AuthStoreRecord{
		Sessions:       []SessionRecord{},
		TrustedDevices: []TrustedDeviceRecord{},
		AttemptState:   map[string]AttemptState{},
	}
}

// Clone returns a deep copy so callers can never alias stored state.
func (r *AuthStoreRecord) Clone() *AuthStoreRecord {
	out := &AuthStoreRecord{
		Sessions:       slices.Clone(r.Sessions),
		TrustedDevices: slices.Clone(r.TrustedDevices),
		AttemptState:   maps.Clone(r.AttemptState),
		UpdatedAt:      r.UpdatedAt,
	}
	if r.Owner != nil {
		owner := *r.Owner
		out.Owner = &owner
	}
	if out.Sessions == nil {
		out.Sessions = []SessionRecord{}
	}
	if out.TrustedDevices == nil {
		out.TrustedDevices = []TrustedDeviceRecord{}
	}
	if out.AttemptState == nil {
		out.AttemptState = map[string]AttemptState{}
	}

	return out
}

// Prune returns a copy without expired sessions, expired trusted devices and attempt
// entries that are neither blocked nor inside their window. The receiver is not modified.
func (r *AuthStoreRecord) Prune(now time.Time, attemptWindow time.Duration) *AuthStoreRecord {
	out := r.Clone()

	out.Sessions = slices.DeleteFunc(out.Sessions, func(s SessionRecord) bool {
		return !s.IsActive(now)
	})
	out.TrustedDevices = slices.DeleteFunc(out.TrustedDevices, func(d TrustedDeviceRecord) bool {
		return !d.IsActive(now)
	})
	maps.DeleteFunc(out.AttemptState, func(_ string, a AttemptState) bool {
		return !a.IsBlocked(now) && !a.WithinWindow(now, attemptWindow)
	})

	return out
}

// FindSession returns the session with the given token, or nil.
func (r *AuthStoreRecord) FindSession(token string) *SessionRecord {
	idx := slices.IndexFunc(r.Sessions, func(s SessionRecord) bool {
		return s.Token == token
	})
	if idx < 0 {
		return nil
	}

	return &r.Sessions[idx]
}

// FindTrustedDevice returns the trusted device with the given hash, or nil.
func (r *AuthStoreRecord) FindTrustedDevice(tokenHash string) *TrustedDeviceRecord {
	idx := slices.IndexFunc(r.TrustedDevices, func(d TrustedDeviceRecord) bool {
		return d.TokenHash == tokenHash
	})
	if idx < 0 {
		return nil
	}

	return &r.TrustedDevices[idx]
}
