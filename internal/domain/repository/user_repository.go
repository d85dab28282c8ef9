package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-auth-boilerplate/internal/domain/entity"
)

// Store-level errors. ErrDuplicateEmail is a distinguishable kind, not a
// generic failure, so callers can map it to a 409.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	// Create assigns ID/CreatedAt/UpdatedAt on success and returns
	// ErrDuplicateEmail when the (normalized) email is taken.
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// UpdateProfile changes name/email and returns the updated user.
	// Returns ErrDuplicateEmail when the new email belongs to another user.
	UpdateProfile(ctx context.Context, id, name, email string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetTwoFactor persists both fields atomically; disable clears the
	// secret as well.
	SetTwoFactor(ctx context.Context, id string, enabled bool, secret string) error

	// SetProfileImage replaces the profile image; a nil image clears it.
	SetProfileImage(ctx context.Context, id string, img *entity.ProfileImage) error
}
