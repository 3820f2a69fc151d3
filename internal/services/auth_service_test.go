package services

import (
	"testing"

	"habbit_backend/internal/auth"
	"habbit_backend/internal/config"
	"habbit_backend/internal/repositories"
	"habbit_backend/internal/services/dto"
	"habbit_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestConfig(t *testing.T) {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-key"
	cfg.JWT.TTL = 60
	config.AppConfig = cfg
}

func TestRegisterAndLogin(t *testing.T) {
	setTestConfig(t)
	db := openTestDB(t)
	svc := NewAuthService(repositories.NewUserRepository(db))

	registered, err := svc.Register(&dto.RegisterRequest{
		Email:    "novo@habbit.app",
		Password: "senha123",
		Name:     "Novo",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "novo@habbit.app", registered.User.Email)
	assert.Equal(t, "PRO", registered.User.Plan)

	claims, err := auth.ParseToken(registered.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	logged, err := svc.Login(&dto.LoginRequest{Email: "novo@habbit.app", Password: "senha123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	setTestConfig(t)
	db := openTestDB(t)
	svc := NewAuthService(repositories.NewUserRepository(db))

	_, err := svc.Register(&dto.RegisterRequest{Email: "dup@habbit.app", Password: "senha123"})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{Email: "dup@habbit.app", Password: "outra123"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestRegister_WeakPassword(t *testing.T) {
	setTestConfig(t)
	db := openTestDB(t)
	svc := NewAuthService(repositories.NewUserRepository(db))

	_, err := svc.Register(&dto.RegisterRequest{Email: "fraca@habbit.app", Password: "123"})
	assert.ErrorIs(t, err, apperrors.ErrWeakPassword)
}

func TestLogin_BadCredentials(t *testing.T) {
	setTestConfig(t)
	db := openTestDB(t)
	svc := NewAuthService(repositories.NewUserRepository(db))

	_, err := svc.Register(&dto.RegisterRequest{Email: "login@habbit.app", Password: "senha123"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Email: "login@habbit.app", Password: "errada"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// Unknown account reports the same error as a wrong password.
	_, err = svc.Login(&dto.LoginRequest{Email: "naoexiste@habbit.app", Password: "senha123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
