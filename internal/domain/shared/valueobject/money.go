package valueobject

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/erp/checkout/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CurrencySymbol is the display symbol of the single currency the checkout works in
const CurrencySymbol = "₹"

// MoneyPlaces is the number of fractional digits a currency amount may carry
const MoneyPlaces int32 = 2

// MaxIntegerDigits bounds the whole-currency part of parsed input
const MaxIntegerDigits = 15

// plainAmount is digits with an optional one or two digit fraction; no sign, exponent or grouping
var plainAmount = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

// ErrInvalidAmount is returned when an amount is not a valid non-negative currency value
var ErrInvalidAmount = shared.NewDomainError("INVALID_AMOUNT", "Amount must be a valid positive number")

// Money is a value object representing a non-negative monetary amount.
// It is immutable - all operations return new Money instances.
// The zero value is a valid zero amount.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount, rejecting negatives and sub-paisa precision
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, shared.NewDomainError(ErrInvalidAmount.Code, fmt.Sprintf("Amount %s cannot be negative", amount.String()))
	}
	if !amount.Equal(amount.Truncate(MoneyPlaces)) {
		return Money{}, shared.NewDomainError(ErrInvalidAmount.Code, fmt.Sprintf("Amount %s has more than %d decimal places", amount.String(), MoneyPlaces))
	}
	return Money{amount: amount}, nil
}

// MustNewMoney is NewMoney for trusted literals, panics on invalid input
func MustNewMoney(amount decimal.Decimal) Money {
	m, err := NewMoney(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromInt creates Money from a whole currency amount
func NewMoneyFromInt(amount int64) (Money, error) {
	return NewMoney(decimal.NewFromInt(amount))
}

// MoneyFromInt is NewMoneyFromInt for literals known to be non-negative
func MoneyFromInt(amount int64) Money {
	return MustNewMoney(decimal.NewFromInt(amount))
}

// ParseMoney parses user input such as "1395" or "12.50".
// Anything but plain digits with an optional two-place fraction fails with
// INVALID_AMOUNT, including exponents and more than MaxIntegerDigits whole digits.
func ParseMoney(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Money{}, shared.NewDomainError(ErrInvalidAmount.Code, "Amount is required")
	}
	if strings.HasPrefix(s, "-") {
		return Money{}, shared.NewDomainError(ErrInvalidAmount.Code, "Amount cannot be negative")
	}
	if !plainAmount.MatchString(s) {
		return Money{}, shared.NewDomainError(ErrInvalidAmount.Code, "Amount must be a plain decimal with at most 2 decimal places")
	}
	whole, _, _ := strings.Cut(s, ".")
	if len(strings.TrimLeft(whole, "0")) > MaxIntegerDigits {
		return Money{}, shared.NewDomainError(ErrInvalidAmount.Code, fmt.Sprintf("Amount exceeds %d integer digits", MaxIntegerDigits))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, shared.NewDomainError(ErrInvalidAmount.Code, "Amount is not a number")
	}
	return NewMoney(d)
}

// ParsePositiveMoney parses user input that must be strictly greater than zero
func ParsePositiveMoney(raw string) (Money, error) {
	m, err := ParseMoney(raw)
	if err != nil {
		return Money{}, err
	}
	if !m.IsPositive() {
		return Money{}, shared.NewDomainError(ErrInvalidAmount.Code, "Amount must be greater than zero")
	}
	return m, nil
}

// Zero returns a zero amount
func Zero() Money {
	return Money{}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is greater than zero
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Add returns the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns the difference, clamped at zero.
// A negative result is never exposed to callers.
func (m Money) Sub(other Money) Money {
	diff := m.amount.Sub(other.amount)
	if diff.IsNegative() {
		return Money{}
	}
	return Money{amount: diff}
}

// MultiplyByInt returns the amount multiplied by a non-negative integer
func (m Money) MultiplyByInt(factor int64) Money {
	if factor <= 0 {
		return Money{}
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor))}
}

// Compare returns -1, 0 or +1 as m is less than, equal to or greater than other
func (m Money) Compare(other Money) int {
	return m.amount.Cmp(other.amount)
}

// Equals returns true if both amounts are numerically equal
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// LessThanOrEqual returns true if this Money is less than or equal to the other
func (m Money) LessThanOrEqual(other Money) bool {
	return m.amount.LessThanOrEqual(other.amount)
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

// MinMoney returns the smaller of two amounts
func MinMoney(a, b Money) Money {
	if a.LessThanOrEqual(b) {
		return a
	}
	return b
}

// String returns the shortest exact decimal form, e.g. "150" or "150.5"
func (m Money) String() string {
	return m.amount.String()
}

// StringFixed returns the amount with fixed decimal places
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

// Display returns the amount prefixed with the currency symbol, e.g. "₹150"
func (m Money) Display() string {
	return CurrencySymbol + m.String()
}

// MarshalJSON encodes the amount as a decimal string so no binary float crosses the boundary
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount.StringFixed(MoneyPlaces))
}

// UnmarshalJSON accepts a decimal string or a bare JSON number and applies the same rules as ParseMoney.
// null leaves the value unchanged.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return shared.NewDomainError(ErrInvalidAmount.Code, "Amount must be a decimal string")
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return shared.NewDomainError(ErrInvalidAmount.Code, "Amount must be a decimal string or number")
		}
		raw = n.String()
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
