package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Admin@123", true},
		{"Sh0rt!", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSpecial123", false},
		{"Tuyết@2024", true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsValidation(err))
			}
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		password, err := GeneratePassword(12)
		require.NoError(t, err)
		assert.Len(t, password, 12)
		assert.NoError(t, ValidatePassword(password), password)
		seen[password] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGeneratePasswordEnforcesMinimumLength(t *testing.T) {
	password, err := GeneratePassword(4)
	require.NoError(t, err)
	assert.Len(t, password, 8)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "admin@snowstore.com", normalizeEmail("  Admin@SnowStore.com "))
	assert.False(t, strings.ContainsAny(normalizeEmail(" a@b.c "), " "))
}
