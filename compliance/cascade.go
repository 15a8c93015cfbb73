/*
cascade.go - Vacancy redistribution and overflow cascade

PURPOSE:
  Turns raw per-unit bucket tallies into compliance-adjusted counts for
  property reporting. Two phases, always in this order:

  PHASE A - Redistribute vacants:
    Vacant units can be leased into any tier, so they count toward
    shortfalls. Walk the standard's tiers from most to least restrictive
    and give each min(shortfall, remaining vacants). Leftovers go to Market.

  PHASE B - Cascade overflow:
    A unit qualifying for a more restrictive tier also satisfies a less
    restrictive one. Walk the tiers in order; excess over target moves to
    the next tier. The last AMI tier keeps its excess (never into Market).

INVARIANT:
  Both phases only move counts between buckets. The total is preserved.

EXAMPLE (20/50-55/80, 10 units, targets 50%:2 80%:6 Market:2):
  raw:            50%:4  80%:2  Market:1  Vacant:3
  after phase A:  50%:4  80%:5  Market:1  (50% is already over; all 3 vacants fill 80%)
  after phase B:  50%:2  80%:7  Market:1

SEE ALSO:
  - targets.go: Target counts
  - rentroll/engine.go: Builds raw tallies
*/
package compliance

// Report is the property-level compliance picture.
type Report struct {
	Standard Standard

	// Targets required by the standard.
	Targets Counts

	// Raw tallies of per-unit compliance buckets.
	Counts Counts

	// Counts after vacancy redistribution and overflow cascade.
	WithVacants Counts

	// WithVacants - Targets, per bucket.
	OverUnder map[Bucket]int
}

// Reconcile computes targets for totalUnits and runs both phases over raw.
func Reconcile(std Standard, raw Counts, totalUnits int) Report {
	targets := Targets(std, totalUnits)
	adjusted := CascadeOverflow(std, RedistributeVacants(std, raw, targets), targets)

	overUnder := make(map[Bucket]int, len(bucketOrder))
	for _, b := range bucketOrder {
		overUnder[b] = adjusted[b] - targets[b]
	}

	return Report{
		Standard:    std,
		Targets:     targets,
		Counts:      raw.Clone(),
		WithVacants: adjusted,
		OverUnder:   overUnder,
	}
}

// RedistributeVacants is phase A. The input is not modified.
func RedistributeVacants(std Standard, raw Counts, targets Counts) Counts {
	out := raw.Clone()
	remaining := out[BucketVacant]
	out[BucketVacant] = 0

	for _, b := range std.TierBuckets() {
		if remaining == 0 {
			break
		}
		shortfall := targets[b] - out[b]
		if shortfall <= 0 {
			continue
		}
		assigned := min(shortfall, remaining)
		out[b] += assigned
		remaining -= assigned
	}
	out[BucketMarket] += remaining
	return out
}

// CascadeOverflow is phase B. The input is not modified. A single forward
// pass suffices because overflow only ever moves toward later tiers.
func CascadeOverflow(std Standard, counts Counts, targets Counts) Counts {
	out := counts.Clone()
	tiers := std.TierBuckets()
	for i := 0; i < len(tiers)-1; i++ {
		b := tiers[i]
		if excess := out[b] - targets[b]; excess > 0 {
			out[b] -= excess
			out[tiers[i+1]] += excess
		}
	}
	return out
}
