package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kwansinnn/cytosight-all-detect/pkg/errors"
)

type signInRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type threadRequest struct {
	Title   string `validate:"notblank,max=200"`
	Content string `validate:"notblank"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantErr   bool
		wantTitle string
	}{
		{"valid sign in", signInRequest{Email: "doc@example.com", Password: "secret1"}, false, ""},
		{"missing email", signInRequest{Password: "secret1"}, true, "Email Required"},
		{"bad email", signInRequest{Email: "nope", Password: "secret1"}, true, "Invalid Email"},
		{"short password", signInRequest{Email: "doc@example.com", Password: "x"}, true, "Password Required"},
		{"blank title", threadRequest{Title: "   ", Content: "body"}, true, "Title Required"},
		{"blank content", threadRequest{Title: "t", Content: "\n"}, true, "Content Required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantTitle, apperrors.GetAppError(err).Message)
		})
	}
}
