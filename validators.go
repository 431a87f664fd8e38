package auth

import (
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// MinPasswordLength is the shortest password accepted for new credentials
const MinPasswordLength = 8

var (
	reUpper  = regexp.MustCompile(`[A-Z]`)
	reDigit  = regexp.MustCompile(`[0-9]`)
	reSymbol = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// PasswordRules are the complexity rules for new passwords. They skip
// empty values, add validation.Required where the password is mandatory.
func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Length(MinPasswordLength, 0),
		validation.By(ValidateMaxBytes(MaxPasswordLength)),
		validation.Match(reUpper).Error("must contain at least one uppercase letter"),
		validation.Match(reDigit).Error("must contain at least one digit"),
		validation.Match(reSymbol).Error("must contain at least one symbol"),
	}
}

// ValidateStringEquals checks the value equals str
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidateMaxBytes limits the byte length of a string
func ValidateMaxBytes(max int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > max {
			return fmt.Errorf("must be at most %d bytes", max)
		}
		return nil
	}
}

// ValidateRole checks the value parses as a Role
func ValidateRole(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := ParseRole(s); err != nil {
		return errors.New("must be one of Admin, Teacher or Student")
	}
	return nil
}

// ValidateAccountID rejects the nil UUID
func ValidateAccountID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
}
