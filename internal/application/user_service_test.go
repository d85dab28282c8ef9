package application

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-auth-boilerplate/pkg/helpers"
)

func registerUser(t *testing.T, svc *Service, name, email, password string) string {
	t.Helper()
	u, err := svc.Register(context.Background(), name, email, password)
	require.NoError(t, err)
	return u.ID
}

func TestRegisterNormalizesEmailAndHashesPassword(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, newFakeStore())

	u, err := svc.Register(context.Background(), "Jane Doe", "  Jane@Example.COM ", "Sup3rSecret")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.NotEqual(t, "Sup3rSecret", u.PasswordHash)
	assert.True(t, helpers.CompareHashAndPassword(u.PasswordHash, "Sup3rSecret"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeStore())

	registerUser(t, svc, "Jane", "jane@example.com", "Sup3rSecret")

	_, err := svc.Register(context.Background(), "Other", "JANE@example.com", "An0therPass")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeStore())
	registerUser(t, svc, "Jane", "jane@example.com", "Sup3rSecret")

	t.Run("valid credentials", func(t *testing.T) {
		u, err := svc.Authenticate(context.Background(), "jane@example.com", "Sup3rSecret", "")
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", u.Email)
	})

	t.Run("email is normalized on lookup", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), " JANE@Example.com ", "Sup3rSecret", "")
		assert.NoError(t, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody@example.com", "Sup3rSecret", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "jane@example.com", "wrong", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticateTwoFactor(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, newFakeStore())
	id := registerUser(t, svc, "Jane", "jane@example.com", "Sup3rSecret")

	setup, err := svc.BeginTwoFactorSetup(context.Background(), id)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmTwoFactor(context.Background(), id, code, setup.Secret))

	t.Run("missing code", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "jane@example.com", "Sup3rSecret", "")
		assert.ErrorIs(t, err, ErrTwoFactorRequired)
	})

	t.Run("wrong code", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "jane@example.com", "Sup3rSecret", "000000")
		assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)
	})

	t.Run("valid code", func(t *testing.T) {
		code, err := totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, err)
		_, err = svc.Authenticate(context.Background(), "jane@example.com", "Sup3rSecret", code)
		assert.NoError(t, err)
	})

	t.Run("wrong password still rejected before code check", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "jane@example.com", "wrong", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticateEnabledWithoutSecret(t *testing.T) {
	r := newFakeRepo()
	svc := newTestService(r, newFakeStore())
	id := registerUser(t, svc, "Jane", "jane@example.com", "Sup3rSecret")

	// An enabled flag with no stored secret must behave as two-factor off.
	require.NoError(t, r.SetTwoFactor(context.Background(), id, true, ""))

	_, err := svc.Authenticate(context.Background(), "jane@example.com", "Sup3rSecret", "")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeStore())
	id := registerUser(t, svc, "Jane", "jane@example.com", "Sup3rSecret")
	registerUser(t, svc, "John", "john@example.com", "An0therPass")

	t.Run("updates name and normalized email", func(t *testing.T) {
		u, err := svc.UpdateProfile(context.Background(), id, "Jane Smith", " Jane.Smith@Example.com ")
		require.NoError(t, err)
		assert.Equal(t, "Jane Smith", u.Name)
		assert.Equal(t, "jane.smith@example.com", u.Email)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), id, "Jane", "john@example.com")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), "missing", "Jane", "jane2@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestGetProfileReflectsLatestState(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeStore())
	id := registerUser(t, svc, "Jane", "jane@example.com", "Sup3rSecret")

	_, err := svc.UpdateProfile(context.Background(), id, "Jane Smith", "jane@example.com")
	require.NoError(t, err)

	u, err := svc.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", u.Name)

	_, err = svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeStore())
	id := registerUser(t, svc, "Jane", "jane@example.com", "Sup3rSecret")

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), id, "wrong", "N3wPassword")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), "missing", "Sup3rSecret", "N3wPassword")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("success rotates the hash", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(context.Background(), id, "Sup3rSecret", "N3wPassword"))

		_, err := svc.Authenticate(context.Background(), "jane@example.com", "Sup3rSecret", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(context.Background(), "jane@example.com", "N3wPassword", "")
		assert.NoError(t, err)
	})
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeStore())
	svc.JWT = helpers.NewJWTManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	registerUser(t, svc, "Jane", "jane@example.com", "Sup3rSecret")

	resp, pair, err := svc.Login(context.Background(), "jane@example.com", "Sup3rSecret", "")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", resp.Email)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.NotEmpty(t, claims.SessionID)
}
