/*
Package validate provides the stateless predicates invoked by step handlers
before a mutation is accepted. Every predicate returns a field-scoped
*domain.ValidationError so callers can surface the exact failing field.
*/
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/aretw0/charter/pkg/domain"
)

// OwnershipTolerance is the floating-point slack allowed when the
// payment-readiness gate compares total ownership to 100%.
const OwnershipTolerance = 0.01

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// phoneRe accepts international-ish numbers: optional +, digits, separators.
var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9\-\s().]{6,24}$`)

// Email checks basic email shape for the named field.
func Email(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "email is required")
	}
	if !emailRe.MatchString(value) {
		return domain.NewValidationError(field, fmt.Sprintf("%q is not a valid email address", value))
	}
	return nil
}

// Phone checks basic phone shape. Empty is rejected; use OptionalPhone when
// the field may be omitted.
func Phone(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "phone number is required")
	}
	if !phoneRe.MatchString(value) {
		return domain.NewValidationError(field, fmt.Sprintf("%q is not a valid phone number", value))
	}
	return nil
}

// OptionalPhone accepts empty values, validating shape only when present.
func OptionalPhone(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return Phone(field, value)
}

// NonEmpty requires a non-blank string.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "must not be empty")
	}
	return nil
}

// AddressComplete requires every mandatory postal address field.
// Line2 is optional.
func AddressComplete(field string, addr *domain.Address) error {
	if addr == nil {
		return domain.NewValidationError(field, "a full postal address is required")
	}
	parts := []struct {
		name  string
		value string
	}{
		{"line1", addr.Line1},
		{"city", addr.City},
		{"state", addr.State},
		{"postal_code", addr.PostalCode},
		{"country", addr.Country},
	}
	for _, p := range parts {
		if strings.TrimSpace(p.value) == "" {
			return domain.NewValidationError(field+"."+p.name, "must not be empty")
		}
	}
	return nil
}

// OwnershipPercent requires 0 < p <= 100.
func OwnershipPercent(field string, p float64) error {
	if math.IsNaN(p) || p <= 0 || p > 100 {
		return domain.NewValidationError(field, fmt.Sprintf("ownership percentage must be greater than 0 and at most 100, got %v", p))
	}
	return nil
}

// OwnershipSumComplete reports whether total equals 100 within tolerance.
// This is enforced only at the payment-readiness boundary; individual
// appends merely report the running total.
func OwnershipSumComplete(total float64) bool {
	return math.Abs(total-100) <= OwnershipTolerance
}

// BaseName bounds the caller-supplied base company name.
func BaseName(field, value string, minLen, maxLen int) error {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < minLen {
		return domain.NewValidationError(field, fmt.Sprintf("must be at least %d characters", minLen))
	}
	if len(trimmed) > maxLen {
		return domain.NewValidationError(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
	return nil
}

// FullName bounds the composed base+ending company name.
func FullName(field, value string, maxLen int) error {
	if len(value) > maxLen {
		return domain.NewValidationError(field, fmt.Sprintf("composed name exceeds %d characters", maxLen))
	}
	return nil
}

// SharesInRange bounds a custom authorized-share count.
func SharesInRange(field string, shares, max int64) error {
	if shares <= 0 {
		return domain.NewValidationError(field, "authorized shares must be positive")
	}
	if shares > max {
		return domain.NewValidationError(field, fmt.Sprintf("authorized shares must be at most %d", max))
	}
	return nil
}

// ParValue requires a positive par value per share.
func ParValue(field string, par float64) error {
	if math.IsNaN(par) || par <= 0 {
		return domain.NewValidationError(field, "par value per share must be positive")
	}
	return nil
}
