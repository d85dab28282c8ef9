package application

import (
	"context"

	"github.com/oksasatya/go-auth-boilerplate/pkg/helpers"
	"github.com/oksasatya/go-auth-boilerplate/pkg/mailer/templates"
)

// TwoFactorSetup carries a freshly generated secret plus its provisioning QR
// code. Nothing is persisted until the user confirms with a valid code.
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"`
}

// BeginTwoFactorSetup generates a new shared secret and QR code for the
// user's authenticator app. Calling it again simply generates another; the
// account is untouched until ConfirmTwoFactor.
func (s *Service) BeginTwoFactorSetup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	secret, qr, err := helpers.GenerateTOTPKey(s.TOTPIssuer, u.Email)
	if err != nil {
		return nil, err
	}
	return &TwoFactorSetup{Secret: secret, QRCode: qr}, nil
}

// ConfirmTwoFactor checks the code against the pending secret and, on
// success, persists the secret and flips two-factor on.
func (s *Service) ConfirmTwoFactor(ctx context.Context, userID, code, secret string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if !helpers.ValidateTOTP(code, secret) {
		return ErrInvalidTwoFactorCode
	}
	if err := s.Repo.SetTwoFactor(ctx, userID, true, secret); err != nil {
		return err
	}
	s.EnqueueNotification(ctx, u, templates.TwoFactorEnabled, nil)
	return nil
}

// DisableTwoFactor turns two-factor off and clears the stored secret. An
// authenticated session is sufficient; no code is demanded.
func (s *Service) DisableTwoFactor(ctx context.Context, userID string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}
	if err := s.Repo.SetTwoFactor(ctx, userID, false, ""); err != nil {
		return err
	}
	s.EnqueueNotification(ctx, u, templates.TwoFactorDisabled, nil)
	return nil
}
