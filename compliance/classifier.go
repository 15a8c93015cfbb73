/*
classifier.go - Income-based AMI bucket classification

PURPOSE:
  Answers "which AMI bucket does this household qualify for?" from total
  household income, household size, the income limit table in effect and
  the property's compliance standard.

RULES (in order, first match wins):
  1. No residents                 -> Vacant
  2. Residents but income <= 0    -> No Income Information
  3. Walk the standard's tiers from most to least restrictive; the first
     tier whose ceiling (for min(size, 8)) is >= income wins
  4. Nothing matched              -> Market

  A tier with no ceiling for the household size is skipped, not an error:
  the unit falls through toward Market.

RENT ANALYSIS:
  Classifier.Classify layers the rent-limit check from rent.go on top of
  the income result. With rent analysis disabled the two are identical.

EXAMPLE:
  limits := IncomeLimits{Tier50: {2: decimal.NewFromInt(35000)}, ...}
  IncomeBucket(decimal.NewFromInt(30000), 2, limits, std) // "50% AMI"

SEE ALSO:
  - rent.go: Rent-limit extension
  - resolver.go: Grandfathering between original and current bucket
*/
package compliance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/generic"
)

// IncomeBucket classifies a household by income alone.
func IncomeBucket(income decimal.Decimal, householdSize int, limits IncomeLimits, std Standard) Bucket {
	if householdSize <= 0 {
		return BucketVacant
	}
	if !income.IsPositive() {
		return BucketNoIncome
	}
	if householdSize > MaxHouseholdSize {
		householdSize = MaxHouseholdSize
	}

	for _, tier := range std.Tiers() {
		ceiling, ok := limits.Ceiling(tier, householdSize)
		if !ok {
			continue
		}
		if ceiling.GreaterThanOrEqual(income) {
			return tier.Bucket()
		}
	}
	return BucketMarket
}

// =============================================================================
// CLASSIFIER - Income classification with optional rent analysis
// =============================================================================

// Classifier holds everything about a property that classification needs.
// It is a value type with no mutable state and is safe to share across
// goroutines as long as the maps are not modified.
type Classifier struct {
	Standard     Standard
	IncomeLimits IncomeLimits

	// RentAnalysis enables the rent-limit extension.
	RentAnalysis bool
	RentLimits   RentLimits

	// UtilityAllowancesEnabled toggles deduction of UtilityAllowances from
	// the published max rent.
	UtilityAllowancesEnabled bool
	UtilityAllowances        UtilityAllowances

	Observer generic.Observer
}

// UnitFacts is the per-unit input to classification.
type UnitFacts struct {
	UnitID          string
	HouseholdIncome decimal.Decimal
	HouseholdSize   int

	// Optional; rent analysis bypasses when either is nil.
	Rent     *decimal.Decimal
	Bedrooms *int
}

// Classify returns the unit's bucket: income-qualified first, then floated
// up by rent when rent analysis applies.
func (c Classifier) Classify(f UnitFacts) Bucket {
	bucket := IncomeBucket(f.HouseholdIncome, f.HouseholdSize, c.IncomeLimits, c.Standard)
	return c.applyRent(bucket, f)
}

// IncomeOnly ignores rent analysis regardless of configuration.
func (c Classifier) IncomeOnly(f UnitFacts) Bucket {
	return IncomeBucket(f.HouseholdIncome, f.HouseholdSize, c.IncomeLimits, c.Standard)
}

func (c Classifier) observer() generic.Observer {
	return generic.ObserverOrNop(c.Observer)
}
