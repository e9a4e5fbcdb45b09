package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func testPasswordManager() *PasswordManager {
	return NewPasswordManager(&config.Config{
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	})
}

func TestValidatePassword(t *testing.T) {
	pm := testPasswordManager()

	assert.NoError(t, pm.ValidatePassword("Sufficient1"))

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"no uppercase", "lowercase1"},
		{"no lowercase", "UPPERCASE1"},
		{"no number", "NoNumbersHere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, pm.ValidatePassword(tt.password))
		})
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	pm := testPasswordManager()

	hash, err := pm.HashPassword("Sufficient1")
	require.NoError(t, err)
	require.NotEqual(t, "Sufficient1", hash)

	assert.NoError(t, pm.VerifyPassword("Sufficient1", hash))
	assert.Error(t, pm.VerifyPassword("WrongPassword1", hash))
}
