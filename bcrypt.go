package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the bcrypt input limit in bytes
const MaxPasswordLength = 72

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, passwordHashCost())
}

// HashPasswordWithCost hashes with an explicit bcrypt cost. Values outside
// the bcrypt range fall back to the default cost.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if len(password) > MaxPasswordLength {
		return "", withMetadata(ErrPasswordTooLong, map[string]any{
			"max_bytes": MaxPasswordLength,
		})
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = passwordHashCost()
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if hash == "" || password == "" || len(password) > MaxPasswordLength {
		return ErrMismatchedHashAndPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			// malformed or unsupported hash, treated as a mismatch
			return withMetadata(ErrMismatchedHashAndPassword, map[string]any{
				"reason": err.Error(),
			})
		}
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// bcryptHasher implements PasswordAuthenticator with a fixed cost
type bcryptHasher struct {
	cost int
}

// NewPasswordAuthenticator returns a bcrypt backed PasswordAuthenticator.
// A zero cost uses the build default.
func NewPasswordAuthenticator(cost int) PasswordAuthenticator {
	if cost == 0 {
		cost = passwordHashCost()
	}
	return bcryptHasher{cost: cost}
}

func (b bcryptHasher) HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, b.cost)
}

func (b bcryptHasher) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}
