/*
Package generic provides the shared primitives of the compliance engine.

PURPOSE:
  This package holds the domain-neutral building blocks every other package
  leans on: money parsing and comparison, calendar dates and lease terms,
  sentinel errors, and the observability boundary the engine reports through.
  It knows nothing about AMI buckets or verification statuses.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal.Decimal amounts (income, rent, limits)
  - ParseMoney: lenient parsing of rent-roll numbers ("$1,200.00 ")
  - Optional money: *decimal.Decimal where "not reported" differs from zero

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors at limit boundaries
  2. Tolerance: Malformed input becomes "absent", never a panic or an error
  3. Purity: Nothing here performs I/O

USAGE:
  rent, ok := generic.ParseMoney("$1,200.00")
  if !ok {
      // treat as unreported
  }

SEE ALSO:
  - time.go: Date and comparisons
  - period.go: Lease terms
  - observer.go: Engine events
*/
package generic

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// moneyNoise is stripped before parsing: currency symbols, thousands
// separators and whitespace that spreadsheets leave behind.
var moneyNoise = strings.NewReplacer("$", "", ",", "", " ", "", "\t", "", "\u00a0", "")

// ParseMoney parses a formatted amount. Returns false when nothing numeric
// remains after cleanup. Accounting negatives "(125.00)" are honored.
func ParseMoney(s string) (decimal.Decimal, bool) {
	cleaned := moneyNoise.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, false
	}
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseMoneyPtr is ParseMoney returning nil on failure.
func ParseMoneyPtr(s string) *decimal.Decimal {
	d, ok := ParseMoney(s)
	if !ok {
		return nil
	}
	return &d
}

func MoneyPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// SameMoney compares optional amounts by value; two nils are equal.
func SameMoney(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// ValueOr dereferences d, or returns fallback for nil.
func ValueOr(d *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if d == nil {
		return fallback
	}
	return *d
}
