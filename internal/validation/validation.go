package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"gymdesk/internal/credentials"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]{3,32}$`)
)

// MinPasswordLength is the shortest secret accepted at registration
const MinPasswordLength = 8

// MaxPasswordLength is the longest secret in bytes; bcrypt refuses anything longer
const MaxPasswordLength = 72

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateUsername checks a login name. Usernames end up in credential tokens, so the
// character set excludes the token delimiter entirely.
func ValidateUsername(username string) error {
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username must be 3-32 letters, digits, '.', '_' or '-'"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if len(password) > MaxPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength)}
	}
	if err := credentials.ValidatePart(password); err != nil {
		return ValidationError{Field: "password", Message: "password must not contain " + credentials.Delimiter}
	}
	if strings.HasPrefix(password, "&") {
		return ValidationError{Field: "password", Message: "password must not start with '&'"}
	}
	return nil
}

// ValidateTaxNumber checks a tax/identity number: 5-20 digits, optional spaces or dashes
func ValidateTaxNumber(taxNumber string) (string, error) {
	normalized := NormalizeTaxNumber(taxNumber)
	if normalized == "" {
		return "", ValidationError{Field: "tax_number", Message: "tax number is required"}
	}
	for _, r := range normalized {
		if !unicode.IsDigit(r) {
			return "", ValidationError{Field: "tax_number", Message: "tax number must contain only digits"}
		}
	}
	if len(normalized) < 5 || len(normalized) > 20 {
		return "", ValidationError{Field: "tax_number", Message: "tax number must be 5-20 digits"}
	}
	return normalized, nil
}

// NormalizeTaxNumber strips spaces and dashes so equal numbers compare equal in storage
func NormalizeTaxNumber(taxNumber string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(taxNumber))
}

// ValidateName checks if a display name or title is valid
func ValidateName(field, name string, maxLen int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if len(name) > maxLen {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, maxLen)}
	}
	return nil
}
