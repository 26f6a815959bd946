package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/bookreview-cli/internal/validation"
)

type signIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type review struct {
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"omitempty,httpurl"`
}

func TestValidator_Success(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(signIn{Email: "test@example.com", Password: "123456"}))
	assert.NoError(t, v.Validate(review{Title: "Go", URL: "https://go.dev"}))
	assert.NoError(t, v.Validate(review{Title: "Go"}))
}

func TestValidator_Messages(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name  string
		input any
		field string
		want  string
	}{
		{name: "bad email", input: signIn{Email: "invalid-email", Password: "123456"}, field: "email", want: "invalid email"},
		{name: "short password", input: signIn{Email: "a@example.com", Password: "123"}, field: "password", want: "password must be at least 6 characters"},
		{name: "missing title", input: review{}, field: "title", want: "title is required"},
		{name: "bad url scheme", input: review{Title: "x", URL: "ftp://example.com"}, field: "url", want: "url must start with http:// or https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			require.Error(t, err)

			var vErr *validation.Error
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.want, vErr.Field(tt.field))
		})
	}
}

func TestValidator_FirstFieldWins(t *testing.T) {
	v := validation.New()
	err := v.Validate(signIn{Email: "nope", Password: "1"})
	require.Error(t, err)
	assert.Equal(t, "invalid email", err.Error())
}
