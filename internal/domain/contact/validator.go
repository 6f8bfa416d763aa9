package contact

import (
	"net/mail"
	"strings"

	"family-registry-go/internal/apperr"
)

const (
	minMobileDigits = 7
	maxMobileDigits = 15
)

var (
	ErrInvalidEmail  = apperr.New(apperr.KindInvalidArgument, "invalid_email", "email is not valid")
	ErrInvalidMobile = apperr.New(apperr.KindInvalidArgument, "invalid_mobile", "mobile number is not valid")
)

// Validator normalizes contact fields. Empty input normalizes to an empty
// string without error; callers decide whether a field is required.
type Validator struct{}

func NewValidator() Validator {
	return Validator{}
}

func (Validator) NormalizeEmail(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", nil
	}
	parsed, err := mail.ParseAddress(value)
	if err != nil || parsed.Address != value || parsed.Name != "" {
		return "", ErrInvalidEmail.Withf("email %q is not valid", value)
	}
	at := strings.LastIndex(value, "@")
	if at <= 0 || !strings.Contains(value[at+1:], ".") {
		return "", ErrInvalidEmail.Withf("email %q is not valid", value)
	}
	return value, nil
}

// NormalizeMobile strips common separators and keeps an optional leading plus.
func (Validator) NormalizeMobile(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	var builder strings.Builder
	builder.Grow(len(value))
	digits := 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			builder.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidMobile.Withf("mobile %q contains invalid characters", value)
		}
	}
	if digits < minMobileDigits || digits > maxMobileDigits {
		return "", ErrInvalidMobile.Withf("mobile %q must have between %d and %d digits", value, minMobileDigits, maxMobileDigits)
	}
	return builder.String(), nil
}

// Digits returns only the decimal digits of value.
func Digits(value string) string {
	var builder strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
