package service

import (
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/aircnc/identity/pkg/errors"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// commonPasswords is a short deny list of passwords seen most often in
// credential dumps. Checked case-insensitively.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"sunshine":    {},
	"princess":    {},
	"football":    {},
	"baseball":    {},
	"superman":    {},
	"trustno1":    {},
	"welcome1":    {},
	"monkey123":   {},
	"dragon123":   {},
	"letmein1":    {},
	"abc12345":    {},
}

// validatePassword checks that the password meets the platform's complexity
// requirements: minimum length, not purely numeric, not on the common
// password deny list, and not too similar to the user's own identity fields.
func validatePassword(password string, identityFields ...string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	numeric := true
	for _, ch := range password {
		if !unicode.IsDigit(ch) {
			numeric = false
			break
		}
	}
	if numeric {
		return apperrors.InvalidInput("password must not be entirely numeric")
	}

	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		return apperrors.InvalidInput("password is too common")
	}

	for _, field := range identityFields {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" || len(field) < 4 {
			continue
		}
		if strings.Contains(lower, field) || strings.Contains(field, lower) {
			return apperrors.InvalidInput("password is too similar to your personal information")
		}
	}

	return nil
}
