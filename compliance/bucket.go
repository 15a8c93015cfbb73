/*
Package compliance implements AMI bucket classification and property-level
compliance arithmetic.

PURPOSE:
  Given a household's income and size, the income limits in effect, and the
  property's compliance standard, decide which AMI bucket a unit falls into.
  Aggregate those buckets into target, actual and vacancy-adjusted counts
  for a property.

KEY CONCEPTS:
  - Bucket: The closed, totally ordered set of classification labels
  - Tier: An AMI percentage (50, 60, 80) that maps onto a bucket
  - Standard: The compliance option a property elected (which tiers apply,
    and what share of units each tier requires)
  - IncomeLimits / RentLimits: External tables keyed by tier

BUCKET ORDERING:
  Most restrictive first:
    50% AMI < 60% AMI < 80% AMI < Market < Vacant < No Income Information
  The ordering drives the grandfathering rule (resolver.go): the more
  restrictive of two buckets is the "better" one for the property.

SEE ALSO:
  - classifier.go: Income-only classification
  - rent.go: Rent-limit extension
  - targets.go, cascade.go: Property-level arithmetic
*/
package compliance

import "strings"

// =============================================================================
// BUCKET
// =============================================================================

// Bucket is a compliance classification label. The string values are part
// of the external interface and must not change.
type Bucket string

const (
	Bucket50       Bucket = "50% AMI"
	Bucket60       Bucket = "60% AMI"
	Bucket80       Bucket = "80% AMI"
	BucketMarket   Bucket = "Market"
	BucketVacant   Bucket = "Vacant"
	BucketNoIncome Bucket = "No Income Information"
)

var bucketOrder = []Bucket{
	Bucket50,
	Bucket60,
	Bucket80,
	BucketMarket,
	BucketVacant,
	BucketNoIncome,
}

// AllBuckets returns every bucket, most restrictive first.
func AllBuckets() []Bucket {
	return append([]Bucket(nil), bucketOrder...)
}

// Rank is the bucket's position in the total order; lower is more
// restrictive. Unknown labels rank after everything else.
func (b Bucket) Rank() int {
	for i, o := range bucketOrder {
		if o == b {
			return i
		}
	}
	return len(bucketOrder)
}

// MoreRestrictiveThan reports whether b sorts strictly before other.
func (b Bucket) MoreRestrictiveThan(other Bucket) bool {
	return b.Rank() < other.Rank()
}

// IsAMI is true for the income-restricted buckets.
func (b Bucket) IsAMI() bool {
	return b == Bucket50 || b == Bucket60 || b == Bucket80
}

// Valid reports whether b is one of the fixed labels.
func (b Bucket) Valid() bool {
	return b.Rank() < len(bucketOrder)
}

// =============================================================================
// TIER - AMI percentage
// =============================================================================

// Tier is an AMI percentage used as the key of limit tables.
type Tier int

const (
	Tier50 Tier = 50
	Tier60 Tier = 60
	Tier80 Tier = 80
)

// Bucket maps a tier onto its label. Unknown tiers map to Market.
func (t Tier) Bucket() Bucket {
	switch t {
	case Tier50:
		return Bucket50
	case Tier60:
		return Bucket60
	case Tier80:
		return Bucket80
	default:
		return BucketMarket
	}
}

// ParseTier accepts "50", "50%", "50% AMI" and "ami50".
func ParseTier(s string) (Tier, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "ami")
	s = strings.TrimPrefix(s, "ami")
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	switch s {
	case "50":
		return Tier50, true
	case "60":
		return Tier60, true
	case "80":
		return Tier80, true
	}
	return 0, false
}

// =============================================================================
// COUNTS - Bucket tallies
// =============================================================================

// Counts tallies units per bucket.
type Counts map[Bucket]int

// NewCounts returns a tally with every bucket present at zero.
func NewCounts() Counts {
	c := make(Counts, len(bucketOrder))
	for _, b := range bucketOrder {
		c[b] = 0
	}
	return c
}

// Total sums all buckets.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Clone returns an independent copy including every bucket key.
func (c Counts) Clone() Counts {
	out := NewCounts()
	for b, n := range c {
		out[b] = n
	}
	return out
}

// Tally counts a list of buckets.
func Tally(buckets []Bucket) Counts {
	c := NewCounts()
	for _, b := range buckets {
		c[b]++
	}
	return c
}
