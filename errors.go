package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to rich errors so clients can branch without
// parsing messages.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodePasswordMismatch   = "PASSWORD_MISMATCH"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodePasswordTooLong    = "PASSWORD_TOO_LONG"
	TextCodeTokenMissing       = "TOKEN_MISSING"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeSigningKeyMissing  = "SIGNING_KEY_MISSING"
	TextCodeRoleMissing        = "ROLE_MISSING"
	TextCodeRoleUnknown        = "ROLE_UNKNOWN"
	TextCodeInvalidRole        = "INVALID_ROLE"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	TextCodeValidation         = "VALIDATION_FAILED"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword password verification failed
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString we refuse to hash empty passwords
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordTooLong bcrypt only reads the first 72 bytes
var ErrPasswordTooLong = goerrors.New("password exceeds maximum length", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordTooLong).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenMissing the request carries no bearer token
var ErrTokenMissing = goerrors.New("missing or malformed JWT", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired token is past its exp claim
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed token failed signature, algorithm, issuer or audience checks
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden authenticated, but the role is not in the endpoint allow-list
var ErrForbidden = goerrors.New("role is not allowed to access this resource", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrMissingSigningKey no key configured for signing or verifying tokens
var ErrMissingSigningKey = goerrors.New("token signing key is not configured", goerrors.CategoryInternal).
	WithTextCode(TextCodeSigningKeyMissing).
	WithCode(goerrors.CodeInternal)

// ErrMissingRole the account has no role and cannot be issued a token
var ErrMissingRole = goerrors.New("account has no role assigned", goerrors.CategoryInternal).
	WithTextCode(TextCodeRoleMissing).
	WithCode(goerrors.CodeInternal)

// ErrUnknownRole the stored role is outside the recognized set
var ErrUnknownRole = goerrors.New("account role is not recognized", goerrors.CategoryInternal).
	WithTextCode(TextCodeRoleUnknown).
	WithCode(goerrors.CodeInternal)

// ErrInvalidRole user input named a role outside the recognized set
var ErrInvalidRole = goerrors.New("role is not recognized", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountNotFound no active account matches
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrEmailTaken another active account already uses the email
var ErrEmailTaken = goerrors.New("email is already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// IsUnauthenticated reports whether err means the caller has no valid token
// or credentials.
func IsUnauthenticated(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth
}

// IsForbidden reports whether err means the caller is authenticated but
// lacks the required role.
func IsForbidden(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuthz
}

// IsAccountNotFound reports whether err is a not found lookup.
func IsAccountNotFound(err error) bool {
	return HasTextCode(err, TextCodeAccountNotFound)
}

// HasTextCode checks the text code of a rich error.
func HasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return HasTextCode(err, TextCodeTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return HasTextCode(err, TextCodeTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// withMetadata clones a sentinel so request details never leak into the
// shared value.
func withMetadata(base *goerrors.Error, metadata map[string]any) *goerrors.Error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Source = base
	return clone.WithMetadata(metadata)
}

func storeError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "credential store unavailable").
		WithTextCode(TextCodeStoreUnavailable).
		WithCode(goerrors.CodeInternal).
		WithMetadata(map[string]any{"operation": operation})
}

func notFoundOr(err error, operation string, metadata map[string]any) error {
	if isRecordNotFound(err) {
		return withMetadata(ErrAccountNotFound, metadata)
	}
	return storeError(err, operation)
}

// validationError flattens ozzo validation errors into a field map.
func validationError(err error, message string) error {
	fields := map[string]string{}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			if fieldErr != nil {
				fields[field] = fieldErr.Error()
			}
		}
	} else {
		fields["payload"] = err.Error()
	}

	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}
