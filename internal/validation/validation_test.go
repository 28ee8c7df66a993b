package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type signUp struct {
	Email                string `validate:"required,email"`
	Password             string `validate:"required,min=8,max=128"`
	PasswordConfirmation string `validate:"required,eqfield=Password"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   signUp
		wantErr string
	}{
		{
			name:  "valid",
			input: signUp{Email: "a@example.com", Password: "password1", PasswordConfirmation: "password1"},
		},
		{
			name:    "missing email",
			input:   signUp{Password: "password1", PasswordConfirmation: "password1"},
			wantErr: "email is required",
		},
		{
			name:    "bad email",
			input:   signUp{Email: "not-an-email", Password: "password1", PasswordConfirmation: "password1"},
			wantErr: "email must be a valid email address",
		},
		{
			name:    "short password",
			input:   signUp{Email: "a@example.com", Password: "short", PasswordConfirmation: "short"},
			wantErr: "password must be at least 8 characters long",
		},
		{
			name:    "confirmation mismatch",
			input:   signUp{Email: "a@example.com", Password: "password1", PasswordConfirmation: "password2"},
			wantErr: "password_confirmation does not match password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user@example.com"},
		{"  User@Example.COM ", "user@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmail(tt.in))
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "password_confirmation", toSnake("PasswordConfirmation"))
	assert.Equal(t, "email", toSnake("Email"))
	assert.Equal(t, "current_password", toSnake("CurrentPassword"))
}
