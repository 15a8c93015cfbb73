package compliance

import "github.com/shopspring/decimal"

// =============================================================================
// TARGET ALLOCATION - Required unit counts per bucket
// =============================================================================

var (
	pct20  = decimal.RequireFromString("0.20")
	pct25  = decimal.RequireFromString("0.25")
	pct35  = decimal.RequireFromString("0.35")
	pct40  = decimal.RequireFromString("0.40")
	pct100 = decimal.NewFromInt(100)
)

// Targets computes how many units the standard requires in each bucket.
// The result contains every bucket (zero where the standard sets no
// target) and always sums to totalUnits.
//
//	20/50, 55/80: 50% = ceil(0.20n), Market = floor(0.25n), 80% = remainder
//	40/60, 35/80: 60% = ceil(0.40n), 80% = ceil(0.35n), Market = remainder
//	100/80:       80% = n
//	custom p:     80% = ceil(p/100 * n), Market = remainder
//
// For 40/60-35/80 on very small properties the two ceilings can exceed n;
// the 80% target is reduced so Market never goes negative.
func Targets(std Standard, totalUnits int) Counts {
	targets := NewCounts()
	if totalUnits <= 0 {
		return targets
	}
	n := decimal.NewFromInt(int64(totalUnits))

	switch std.Kind {
	case Standard2050_5580:
		at50 := ceilInt(n.Mul(pct20))
		market := floorInt(n.Mul(pct25))
		targets[Bucket50] = at50
		targets[BucketMarket] = market
		targets[Bucket80] = totalUnits - at50 - market

	case Standard4060_3580:
		at60 := min(ceilInt(n.Mul(pct40)), totalUnits)
		at80 := min(ceilInt(n.Mul(pct35)), totalUnits-at60)
		targets[Bucket60] = at60
		targets[Bucket80] = at80
		targets[BucketMarket] = totalUnits - at60 - at80

	case Standard100_80:
		targets[Bucket80] = totalUnits

	case StandardCustom80:
		pct := std.CustomPercent
		if pct.IsNegative() {
			pct = decimal.Zero
		}
		if pct.GreaterThan(pct100) {
			pct = pct100
		}
		at80 := ceilInt(n.Mul(pct).Div(pct100))
		targets[Bucket80] = at80
		targets[BucketMarket] = totalUnits - at80

	default:
		targets[BucketMarket] = totalUnits
	}
	return targets
}

func ceilInt(d decimal.Decimal) int  { return int(d.Ceil().IntPart()) }
func floorInt(d decimal.Decimal) int { return int(d.Floor().IntPart()) }
