package compliance

import "github.com/shopspring/decimal"

// =============================================================================
// LIMIT TABLES - External input data
// =============================================================================

// MaxHouseholdSize caps the household-size key of income limit tables.
// Published tables stop at eight persons.
const MaxHouseholdSize = 8

// IncomeLimits holds income ceilings: tier -> household size (1..8) -> amount.
type IncomeLimits map[Tier]map[int]decimal.Decimal

// Ceiling returns the income ceiling for a tier and household size. The size
// is capped at MaxHouseholdSize. A missing entry reports false; callers skip
// the tier rather than fail.
func (l IncomeLimits) Ceiling(t Tier, householdSize int) (decimal.Decimal, bool) {
	if l == nil || householdSize < 1 {
		return decimal.Zero, false
	}
	if householdSize > MaxHouseholdSize {
		householdSize = MaxHouseholdSize
	}
	bySize, ok := l[t]
	if !ok {
		return decimal.Zero, false
	}
	v, ok := bySize[householdSize]
	return v, ok
}

// Set records a ceiling, allocating as needed.
func (l IncomeLimits) Set(t Tier, householdSize int, amount decimal.Decimal) {
	if l[t] == nil {
		l[t] = make(map[int]decimal.Decimal)
	}
	l[t][householdSize] = amount
}

// IsEmpty is true when no ceiling is recorded.
func (l IncomeLimits) IsEmpty() bool {
	for _, bySize := range l {
		if len(bySize) > 0 {
			return false
		}
	}
	return true
}

// RentLimits holds maximum gross rents: tier -> bedroom count -> amount.
type RentLimits map[Tier]map[int]decimal.Decimal

// MaxRent returns the published maximum rent for a tier and bedroom count.
func (l RentLimits) MaxRent(t Tier, bedrooms int) (decimal.Decimal, bool) {
	if l == nil {
		return decimal.Zero, false
	}
	byBedrooms, ok := l[t]
	if !ok {
		return decimal.Zero, false
	}
	v, ok := byBedrooms[bedrooms]
	return v, ok
}

// Set records a maximum rent, allocating as needed.
func (l RentLimits) Set(t Tier, bedrooms int, amount decimal.Decimal) {
	if l[t] == nil {
		l[t] = make(map[int]decimal.Decimal)
	}
	l[t][bedrooms] = amount
}

// IsEmpty is true when no rent limit is recorded.
func (l RentLimits) IsEmpty() bool {
	for _, byBedrooms := range l {
		if len(byBedrooms) > 0 {
			return false
		}
	}
	return true
}

// UtilityAllowances holds the utility allowance per bedroom count. The
// allowance is deducted from the published max rent.
type UtilityAllowances map[int]decimal.Decimal

// For returns the allowance for a bedroom count, zero when absent.
func (u UtilityAllowances) For(bedrooms int) decimal.Decimal {
	if v, ok := u[bedrooms]; ok {
		return v
	}
	return decimal.Zero
}
