package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/matcha/internal/domain"
)

type signup struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email_address"`
	Bio      string `json:"bio" validate:"omitempty,min=10,max=500"`
}

func TestStructReportsFirstFieldByJSONName(t *testing.T) {
	tests := []struct {
		name  string
		input signup
		field string
		msg   string
	}{
		{"missing username", signup{Email: "a@b.co"}, "username", "username is required"},
		{"short username", signup{Username: "ab", Email: "a@b.co"}, "username", "username must be 3-30 characters of letters, digits, '.', '_' or '-'"},
		{"bad email", signup{Username: "alice", Email: "nope"}, "email", "invalid email address"},
		{"short bio", signup{Username: "alice", Email: "a@b.co", Bio: "short"}, "bio", "bio must be at least 10 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.msg, verr.Message)
		})
	}

	assert.NoError(t, Struct(signup{Username: "alice.b", Email: "a@b.co", Bio: "long enough bio"}))
}

func TestPasswordPolicy(t *testing.T) {
	tests := []struct {
		pw   string
		want string
	}{
		{"Ab1!", "password must be at least 8 characters"},
		{"abcdefg1!", "password must contain at least 1 uppercase letter (A-Z)"},
		{"ABCDEFG1!", "password must contain at least 1 lowercase letter (a-z)"},
		{"Abcdefgh!", "password must contain at least 1 number (0-9)"},
		{"Abcdefgh1", "password must contain at least 1 special character"},
	}

	for _, tt := range tests {
		err := Password("password", tt.pw)
		require.Error(t, err, tt.pw)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, tt.want, err.Error())
	}

	assert.NoError(t, Password("password", "Str0ng!Pass"))
}
