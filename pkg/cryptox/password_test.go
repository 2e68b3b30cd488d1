package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	h := Hasher{Pepper: "test-pepper"}

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"empty password", ""},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.HashPassword(tt.password)
			require.NoError(t, err)

			// Verify PHC format
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"),
				"hash should be in PHC format")

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Contains(t, parts[3], "m=", "should contain memory parameter")
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.NoError(t, h.VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h := Hasher{}

	hash1, err := h.HashPassword("samepassword")
	require.NoError(t, err)
	hash2, err := h.HashPassword("samepassword")
	require.NoError(t, err)

	// Each hash should be different due to unique salts
	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.NoError(t, h.VerifyPassword("samepassword", hash1))
	require.NoError(t, h.VerifyPassword("samepassword", hash2))
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	h := Hasher{Pepper: "test-pepper"}
	hash, err := h.HashPassword("123")
	require.NoError(t, err)

	for _, wrong := range []string{"wrongpassword", "1234", "", "123 "} {
		t.Run(wrong, func(t *testing.T) {
			require.ErrorIs(t, h.VerifyPassword(wrong, hash), ErrPasswordMismatch)
		})
	}
}

func TestVerifyPassword_PepperMatters(t *testing.T) {
	hash, err := Hasher{Pepper: "one"}.HashPassword("123")
	require.NoError(t, err)

	require.ErrorIs(t, Hasher{Pepper: "two"}.VerifyPassword("123", hash), ErrPasswordMismatch)
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	h := Hasher{}

	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.VerifyPassword("test-password", tt.invalidHash)
			require.Error(t, err)
			require.NotErrorIs(t, err, ErrPasswordMismatch)
		})
	}
}
