package compliance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/generic"
)

// =============================================================================
// RENT ANALYSIS - Rent limits constrain the income bucket
// =============================================================================

// applyRent enforces maximum rents on an income-qualified bucket.
//
// A unit whose rent exceeds the adjusted max for its income tier floats up
// to the first less-restrictive tier that accommodates the rent, or Market
// when none does. Rent never moves a unit down. Vacant and No Income
// results pass through untouched.
//
// Adjusted max rent = published max rent - utility allowance (when enabled).
func (c Classifier) applyRent(bucket Bucket, f UnitFacts) Bucket {
	if !c.RentAnalysis || !bucket.IsAMI() {
		return bucket
	}

	switch {
	case f.Rent == nil:
		c.observer().RentAnalysisBypassed(f.UnitID, generic.BypassNoRent)
		return bucket
	case f.Bedrooms == nil:
		c.observer().RentAnalysisBypassed(f.UnitID, generic.BypassNoBedrooms)
		return bucket
	case !c.hasRentLimits(*f.Bedrooms):
		c.observer().RentAnalysisBypassed(f.UnitID, generic.BypassNoRentLimits)
		return bucket
	}

	tiers := c.Standard.Tiers()
	start := -1
	for i, t := range tiers {
		if t.Bucket() == bucket {
			start = i
			break
		}
	}
	if start < 0 {
		return bucket
	}

	rent := *f.Rent
	for _, t := range tiers[start:] {
		maxRent, ok := c.AdjustedMaxRent(t, *f.Bedrooms)
		if !ok {
			continue
		}
		if rent.LessThanOrEqual(maxRent) {
			return t.Bucket()
		}
	}
	return BucketMarket
}

// AdjustedMaxRent is the tier's published max rent for the bedroom count
// minus the utility allowance (zero when allowances are disabled).
func (c Classifier) AdjustedMaxRent(t Tier, bedrooms int) (decimal.Decimal, bool) {
	maxRent, ok := c.RentLimits.MaxRent(t, bedrooms)
	if !ok {
		return decimal.Zero, false
	}
	if c.UtilityAllowancesEnabled {
		maxRent = maxRent.Sub(c.UtilityAllowances.For(bedrooms))
	}
	return maxRent, true
}

// hasRentLimits is true when at least one of the standard's tiers publishes
// a limit for the bedroom count.
func (c Classifier) hasRentLimits(bedrooms int) bool {
	if c.RentLimits.IsEmpty() {
		return false
	}
	for _, t := range c.Standard.Tiers() {
		if _, ok := c.RentLimits.MaxRent(t, bedrooms); ok {
			return true
		}
	}
	return false
}
