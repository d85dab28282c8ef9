package application

import "errors"

// Service-level errors. Handlers map these to HTTP statuses; anything not in
// this list is a 500.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already in use")
	ErrTwoFactorRequired    = errors.New("two-factor code required")
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrNoProfileImage       = errors.New("no profile image to delete")
	ErrImageTooLarge        = errors.New("image exceeds size limit")
)
