package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// PasswordHash and TwoFactorSecret must never leave the process in any
// serialized form; handlers build explicit response maps instead of
// marshaling the entity.
type User struct {
	ID           string
	Name         string
	Email        string // stored trimmed and lowercased
	PasswordHash string

	TwoFactorEnabled bool
	// TwoFactorSecret may be empty while TwoFactorEnabled is true (a user
	// record from before setup completed). The auth pipeline treats that
	// state as two-factor off rather than locking the user out.
	TwoFactorSecret string

	ProfileImage *ProfileImage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileImage references the stored avatar. StorageKey is the only handle
// needed to delete the underlying object; URL is the derived public address.
type ProfileImage struct {
	URL        string
	StorageKey string
	UploadedAt time.Time
}

// TwoFactorActive reports whether the auth pipeline must demand a TOTP code.
func (u *User) TwoFactorActive() bool {
	return u.TwoFactorEnabled && u.TwoFactorSecret != ""
}
