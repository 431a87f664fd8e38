package jwtware

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClaims struct{ email, role string }

func (s stubClaims) GetEmail() string { return s.email }
func (s stubClaims) GetRole() string  { return s.role }

func TestGetExtractorsSkipsInvalidParts(t *testing.T) {
	extractors := GetExtractors("header:Authorization, cookie:jwt,bogus,query:token", "Bearer")
	assert.Len(t, extractors, 3)
}

func TestPerformAuthorizationChecks(t *testing.T) {
	claims := stubClaims{email: "john@x.com", role: "Student"}

	assert.NoError(t, performAuthorizationChecks(claims, Config{}))
	assert.NoError(t, performAuthorizationChecks(claims, Config{AllowedRoles: []string{"Teacher", "Student"}}))

	err := performAuthorizationChecks(claims, Config{AllowedRoles: []string{"Admin"}})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryAuthz, richErr.Category)
	assert.Equal(t, "Student", richErr.Metadata["role"])

	// the shared sentinel is left untouched
	assert.Empty(t, ErrRoleNotAllowed.Metadata)
}
