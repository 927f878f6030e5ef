// Package money holds the percentage arithmetic applied to whole-franc amounts.
// Results are rounded half away from zero.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount or balance the ledger holds.
const MaxAmount int64 = 1_000_000_000_000_000

var ErrOverflow = errors.New("amount exceeds the supported range")

var (
	hundred = decimal.NewFromInt(100)
	ceiling = decimal.NewFromInt(MaxAmount)
)

// Add returns a+b for non-negative amounts, or ErrOverflow when the sum passes MaxAmount.
func Add(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > MaxAmount || b > MaxAmount-a {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Percent returns round(amount * pct / 100).
func Percent(amount int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(pct).Div(hundred).Round(0).IntPart()
}

// Fee returns the withdrawal fee and the net amount paid out.
func Fee(amount int64, feePct decimal.Decimal) (fee, net int64) {
	fee = Percent(amount, feePct)
	return fee, amount - fee
}

// ExpectedReturn is principal plus profit.
func ExpectedReturn(amount int64, profitPct decimal.Decimal) (int64, error) {
	if amount < 0 || amount > MaxAmount {
		return 0, ErrOverflow
	}
	total := decimal.NewFromInt(amount).Add(decimal.NewFromInt(amount).Mul(profitPct).Div(hundred).Round(0))
	if total.GreaterThan(ceiling) {
		return 0, ErrOverflow
	}
	return total.IntPart(), nil
}

// ParsePercent parses a percentage such as "10" or "12.5" and requires 0 <= p <= 1000.
func ParsePercent(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1000)) {
		return decimal.Zero, fmt.Errorf("percentage %s out of range", d)
	}
	return d, nil
}

// Format renders an amount as "RWF 12,500".
func Format(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := fmt.Sprintf("%d", amount)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return "RWF " + sign + string(out)
}
