package delivery

import (
	"fmt"
	"strings"

	"github.com/erp/checkout/internal/domain/shared"
)

const (
	nationalNumberLength = 10
	minInternational     = 8
	maxInternational     = 15
)

// NormalizePhone turns user input into the digits-only international form used
// by chat links and SMS gateways, e.g. "98765 43210" -> "919876543210".
//
// Input starting with "+" is taken as already international. Otherwise leading
// trunk zeros are dropped and a ten digit national number gets countryCode prepended.
// Spaces, dashes, dots and parentheses are ignored; anything else is rejected.
func NormalizePhone(raw, countryCode string) (string, error) {
	s := strings.TrimSpace(raw)
	international := strings.HasPrefix(s, "+")
	s = strings.TrimPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", invalidPhone(raw)
		}
	}
	digits := b.String()

	if international {
		if len(digits) < minInternational || len(digits) > maxInternational {
			return "", invalidPhone(raw)
		}
		return digits, nil
	}

	digits = strings.TrimLeft(digits, "0")
	switch {
	case len(digits) == nationalNumberLength:
		return countryCode + digits, nil
	case countryCode != "" && len(digits) == len(countryCode)+nationalNumberLength && strings.HasPrefix(digits, countryCode):
		return digits, nil
	}
	return "", invalidPhone(raw)
}

func invalidPhone(raw string) *shared.DomainError {
	return shared.NewDomainError(ErrInvalidPhone.Code, fmt.Sprintf("Phone number %q is not valid", strings.TrimSpace(raw)))
}
