// Package money holds the single-currency amount type used by every ledger
// column. Amounts are stored as int64 minor units (two fraction digits) and
// cross the JSON boundary as decimal numbers such as 1250.50.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits of the ledger currency.
const Scale = 2

// Amount is a quantity of money in minor units.
type Amount int64

// FromDecimal converts a decimal value into minor units. Values with more
// than Scale fraction digits are rejected rather than rounded.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	shifted := d.Shift(Scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), Scale)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s is out of range", d.String())
	}
	return Amount(shifted.IntPart()), nil
}

// Parse reads a decimal string such as "1250.5" into minor units.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// Decimal returns the amount as a decimal in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats the amount with exactly Scale fraction digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// MarshalJSON writes the amount as an unquoted decimal number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer so the column stays a plain bigint.
func (a Amount) Value() (driver.Value, error) {
	return int64(a), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = 0
	case int64:
		*a = Amount(v)
	case int32:
		*a = Amount(v)
	case int:
		*a = Amount(v)
	case float64:
		*a = Amount(v)
	case []byte:
		parsed, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("scan amount: %w", err)
		}
		*a = Amount(parsed.IntPart())
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("scan amount: %w", err)
		}
		*a = Amount(parsed.IntPart())
	default:
		return fmt.Errorf("scan amount: unsupported type %T", src)
	}
	return nil
}

var hundred = decimal.NewFromInt(100)

// Percent returns part as a percentage of whole, rounded to two places.
// A non-positive whole yields zero.
func Percent(part, whole Amount) float64 {
	if whole <= 0 {
		return 0
	}
	return part.Decimal().Div(whole.Decimal()).Mul(hundred).Round(2).InexactFloat64()
}
