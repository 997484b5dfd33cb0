package utils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "PH"

func IsValidEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}

	if !libphonenumber.IsValidNumber(p) {
		return NewValidationError("phone number is not valid")
	}

	return nil
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var def T
	if len(defaults) > 0 {
		def = defaults[0]
	}
	return def
}

func NilIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

var decimalCleaner = regexp.MustCompile(`[^0-9.\-]`)

// ParseDecimal accepts formatted money strings ("1,234.50", "PHP 500").
func ParseDecimal(value string) (decimal.Decimal, error) {
	cleaned := decimalCleaner.ReplaceAllString(strings.TrimSpace(value), "")
	if cleaned == "" {
		return decimal.Zero, NewValidationError("amount is required")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, NewValidationError("invalid amount")
	}
	return d, nil
}
