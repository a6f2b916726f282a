package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds every amount the ledger holds: one trillion shillings.
const MaxAmount Money = 100_000_000_000_000

// ErrAmountOutOfRange is returned when an amount or a product of amounts exceeds MaxAmount.
var ErrAmountOutOfRange = errors.New("amount exceeds the supported maximum")

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.NewFromInt(int64(MaxAmount))
)

// Money is an amount in cents. Arithmetic and storage are integer-only;
// JSON carries the amount in shillings, e.g. 17632 or 176.32.
type Money int64

// FromMajor converts a shilling amount to Money.
// Fractions of a cent and amounts beyond MaxAmount are rejected.
func FromMajor(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", d)
	}
	return fromCents(cents)
}

func fromCents(cents decimal.Decimal) (Money, error) {
	if cents.Abs().GreaterThan(maxAmount) {
		return 0, ErrAmountOutOfRange
	}
	return Money(cents.IntPart()), nil
}

// Decimal returns the amount in shillings.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Times multiplies the amount by a quantity.
func (m Money) Times(qty int) (Money, error) {
	return fromCents(decimal.NewFromInt(int64(m)).Mul(decimal.NewFromInt(int64(qty))))
}

// Plus adds two amounts.
func (m Money) Plus(other Money) (Money, error) {
	return fromCents(decimal.NewFromInt(int64(m)).Add(decimal.NewFromInt(int64(other))))
}

// Percent returns p percent of m, rounded half away from zero to the nearest cent.
func (m Money) Percent(p int64) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(decimal.NewFromInt(p)).Div(hundred).Round(0).IntPart())
}

// Major returns the amount in shillings as a float for spreadsheet cells.
func (m Money) Major() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String formats the amount as "KES 1,234.56".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", Currency, m.Format())
}

// Format formats the amount with thousands separators and two decimals, without currency.
func (m Money) Format() string {
	fixed := m.Decimal().Abs().StringFixed(2)
	whole, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	var b strings.Builder
	if m < 0 {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// MarshalJSON writes the amount as a JSON number of shillings.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON reads a JSON number (or numeric string) of shillings.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := FromMajor(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
