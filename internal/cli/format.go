// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HiddenMask replaces every amount when balances are hidden.
const HiddenMask = "•••"

// Money formats amounts in the ledger's currency, honouring the hide-balances setting.
type Money struct {
	Symbol string
	Hide   bool
}

// Format renders d as symbol + amount with 2 decimals and thousands separators.
// e.g., 1234.5 -> "€1,234.50", -3 -> "-€3.00"
func (m Money) Format(d decimal.Decimal) string {
	if m.Hide {
		return HiddenMask
	}
	return FormatMoney(d, m.Symbol)
}

// Signed is Format with an explicit "+" on positive amounts.
func (m Money) Signed(d decimal.Decimal) string {
	if m.Hide {
		return HiddenMask
	}
	if d.IsPositive() {
		return "+" + FormatMoney(d, m.Symbol)
	}
	return FormatMoney(d, m.Symbol)
}

// Limit renders a limit, where zero means unlimited.
func (m Money) Limit(d decimal.Decimal) string {
	if !d.IsPositive() {
		return "none"
	}
	return m.Format(d)
}

// FormatMoney formats d with a currency symbol. The sign precedes the symbol.
func FormatMoney(d decimal.Decimal, symbol string) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + symbol + fixed
	}
	return sign + symbol + FormatNumber(n) + "." + frac
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m 5s", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60
	rem := secs % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 && rem > 0 {
		return fmt.Sprintf("%dm %ds", mins, rem)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

// Usage returns spent/limit as a 0-1 fraction, capped at 1. Zero limits yield 0.
func Usage(spent, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	f, _ := spent.Div(limit).Float64()
	if f > 1 {
		return 1
	}
	if f < 0 {
		return 0
	}
	return f
}

// FormatDate renders a timestamp as "Mon 02 Jan 15:04" in its own location.
func FormatDate(t time.Time) string {
	return t.Format("Mon 02 Jan 15:04")
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
