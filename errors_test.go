package auth_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-account-auth"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		unauthenticated bool
		forbidden       bool
	}{
		{name: "invalid credentials", err: auth.ErrInvalidCredentials, unauthenticated: true},
		{name: "token missing", err: auth.ErrTokenMissing, unauthenticated: true},
		{name: "token expired", err: auth.ErrTokenExpired, unauthenticated: true},
		{name: "token malformed", err: auth.ErrTokenMalformed, unauthenticated: true},
		{name: "forbidden", err: auth.ErrForbidden, forbidden: true},
		{name: "missing role", err: auth.ErrMissingRole},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unauthenticated, auth.IsUnauthenticated(tt.err))
			assert.Equal(t, tt.forbidden, auth.IsForbidden(tt.err))
		})
	}
}

func TestErrorCodes(t *testing.T) {
	assert.EqualValues(t, 401, auth.ErrInvalidCredentials.Code)
	assert.EqualValues(t, 403, auth.ErrForbidden.Code)
	assert.EqualValues(t, 409, auth.ErrEmailTaken.Code)
	assert.EqualValues(t, 404, auth.ErrAccountNotFound.Code)
	assert.EqualValues(t, 400, auth.ErrInvalidRole.Code)
	assert.Equal(t, goerrors.CategoryConflict, auth.ErrEmailTaken.Category)
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsMalformedError(auth.ErrTokenExpired))
	assert.False(t, auth.IsMalformedError(nil))
}
