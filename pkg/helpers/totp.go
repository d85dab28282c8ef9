package helpers

import (
	"bytes"
	"encoding/base64"
	"image/png"

	"github.com/pquerna/otp/totp"
)

// TOTP helpers. Validation accepts the current time step plus one step of
// skew in either direction, so codes survive minor clock drift.

// GenerateTOTPKey creates a fresh shared secret and a provisioning QR code
// (PNG data URL) embedding the otpauth:// URI for issuer/account.
// Nothing is persisted here; the caller holds the secret until confirmed.
func GenerateTOTPKey(issuer, account string) (secret, qrDataURL string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return "", "", err
	}
	img, err := key.Image(256, 256)
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", "", err
	}
	qr := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return key.Secret(), qr, nil
}

// ValidateTOTP checks a 6-digit code against the shared secret.
func ValidateTOTP(code, secret string) bool {
	return totp.Validate(code, secret)
}
