package compliance_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/generic"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func usd(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func usdPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int { return &v }

// testLimits returns a small income table: 50% and 80% ceilings for sizes 1..8,
// 60% ceilings only for sizes 1..4.
func testLimits() compliance.IncomeLimits {
	limits := compliance.IncomeLimits{}
	for size := 1; size <= 8; size++ {
		limits.Set(compliance.Tier50, size, usd(int64(30000+size*2500)))
		limits.Set(compliance.Tier80, size, usd(int64(48000+size*4000)))
	}
	for size := 1; size <= 4; size++ {
		limits.Set(compliance.Tier60, size, usd(int64(36000+size*3000)))
	}
	return limits
}

func testRentLimits() compliance.RentLimits {
	rents := compliance.RentLimits{}
	rents.Set(compliance.Tier50, 2, usd(1200))
	rents.Set(compliance.Tier60, 2, usd(1350))
	rents.Set(compliance.Tier80, 2, usd(1400))
	return rents
}

// recordingObserver counts rent analysis bypasses.
type recordingObserver struct {
	generic.NopObserver
	bypasses []generic.BypassReason
}

func (r *recordingObserver) RentAnalysisBypassed(_ string, reason generic.BypassReason) {
	r.bypasses = append(r.bypasses, reason)
}

var std2050 = compliance.MustParseStandard("20% at 50% AMI, 55% at 80% AMI")

// =============================================================================
// INCOME-ONLY CLASSIFICATION
// =============================================================================

func TestIncomeBucket_WithinFiftyPercentCeiling(t *testing.T) {
	// GIVEN: 50% ceiling for a household of 2 is $35,000
	// WHEN: Household of 2 earns $30,000
	// THEN: 50% AMI
	limits := compliance.IncomeLimits{}
	limits.Set(compliance.Tier50, 2, usd(35000))
	limits.Set(compliance.Tier80, 2, usd(56000))

	bucket := compliance.IncomeBucket(usd(30000), 2, limits, std2050)
	assert.Equal(t, compliance.Bucket50, bucket)
	assert.Equal(t, "50% AMI", string(bucket))
}

func TestIncomeBucket_RuleOrder(t *testing.T) {
	limits := testLimits()

	tests := []struct {
		name   string
		income decimal.Decimal
		size   int
		want   compliance.Bucket
	}{
		{"no residents", usd(50000), 0, compliance.BucketVacant},
		{"no residents beats zero income", decimal.Zero, 0, compliance.BucketVacant},
		{"zero income", decimal.Zero, 3, compliance.BucketNoIncome},
		{"negative income", usd(-10), 1, compliance.BucketNoIncome},
		{"exactly at 50% ceiling", usd(35000), 2, compliance.Bucket50},
		{"one dollar over 50%", usd(35001), 2, compliance.Bucket80},
		{"at 80% ceiling", usd(56000), 2, compliance.Bucket80},
		{"over every ceiling", usd(56001), 2, compliance.BucketMarket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compliance.IncomeBucket(tt.income, tt.size, limits, std2050))
		})
	}
}

func TestIncomeBucket_HouseholdSizeCappedAtEight(t *testing.T) {
	// GIVEN: Limits published up to 8 persons
	// WHEN: A household of 11 earns just under the 8-person 50% ceiling
	// THEN: The 8-person ceiling applies
	limits := testLimits()
	ceiling8, ok := limits.Ceiling(compliance.Tier50, 8)
	require.True(t, ok)

	bucket := compliance.IncomeBucket(ceiling8, 11, limits, std2050)
	assert.Equal(t, compliance.Bucket50, bucket)
}

func TestIncomeBucket_MissingCeilingSkipsTier(t *testing.T) {
	// GIVEN: 40/60-35/80 standard, 60% ceilings only published up to size 4
	// WHEN: A household of 6 with a low income is classified
	// THEN: The 60% tier is skipped and the unit lands in 80%
	std := compliance.MustParseStandard("40% at 60% AMI, 35% at 80% AMI")

	bucket := compliance.IncomeBucket(usd(20000), 6, testLimits(), std)
	assert.Equal(t, compliance.Bucket80, bucket)
}

func TestIncomeBucket_EmptyLimitsFallToMarket(t *testing.T) {
	bucket := compliance.IncomeBucket(usd(1000), 1, nil, std2050)
	assert.Equal(t, compliance.BucketMarket, bucket)
}

func TestIncomeBucket_MonotonicInIncome(t *testing.T) {
	// GIVEN: Fixed household size
	// WHEN: Income increases in steps
	// THEN: The bucket never becomes more restrictive
	limits := testLimits()
	standards := []compliance.Standard{
		std2050,
		compliance.MustParseStandard("40/60, 35/80"),
		compliance.MustParseStandard("100% at 80% AMI"),
		compliance.CustomStandard(usd(65)),
	}

	for _, std := range standards {
		for size := 1; size <= 9; size++ {
			prev := compliance.BucketNoIncome
			first := true
			for income := int64(1000); income <= 120000; income += 500 {
				got := compliance.IncomeBucket(usd(income), size, limits, std)
				if !first {
					assert.False(t, got.MoreRestrictiveThan(prev),
						"%s size %d: income %d moved %s -> %s", std, size, income, prev, got)
				}
				prev, first = got, false
			}
		}
	}
}

// =============================================================================
// RENT ANALYSIS
// =============================================================================

func TestClassify_RentFloatsUpOneTier(t *testing.T) {
	// GIVEN: Income qualifies for 50%, rent $1,200 on a 2BR
	//        adjusted maxes: 50% = $1,100, 80% = $1,300
	// WHEN: Classified with rent analysis
	// THEN: The unit floats up to 80% AMI
	limits := compliance.IncomeLimits{}
	limits.Set(compliance.Tier50, 2, usd(35000))
	limits.Set(compliance.Tier80, 2, usd(56000))
	rents := compliance.RentLimits{}
	rents.Set(compliance.Tier50, 2, usd(1250))
	rents.Set(compliance.Tier80, 2, usd(1450))

	c := compliance.Classifier{
		Standard:                 std2050,
		IncomeLimits:             limits,
		RentAnalysis:             true,
		RentLimits:               rents,
		UtilityAllowancesEnabled: true,
		UtilityAllowances:        compliance.UtilityAllowances{2: usd(150)},
	}

	facts := compliance.UnitFacts{
		UnitID:          "u-1",
		HouseholdIncome: usd(30000),
		HouseholdSize:   2,
		Rent:            usdPtr(1200),
		Bedrooms:        intPtr(2),
	}

	assert.Equal(t, compliance.Bucket50, c.IncomeOnly(facts))
	assert.Equal(t, compliance.Bucket80, c.Classify(facts))
}

func TestClassify_RentWithinLimitKeepsTier(t *testing.T) {
	c := compliance.Classifier{
		Standard:     std2050,
		IncomeLimits: testLimits(),
		RentAnalysis: true,
		RentLimits:   testRentLimits(),
	}

	bucket := c.Classify(compliance.UnitFacts{
		UnitID: "u-1", HouseholdIncome: usd(30000), HouseholdSize: 2,
		Rent: usdPtr(1200), Bedrooms: intPtr(2),
	})
	assert.Equal(t, compliance.Bucket50, bucket)
}

func TestClassify_RentAboveEveryTierIsMarket(t *testing.T) {
	c := compliance.Classifier{
		Standard:     std2050,
		IncomeLimits: testLimits(),
		RentAnalysis: true,
		RentLimits:   testRentLimits(),
	}

	bucket := c.Classify(compliance.UnitFacts{
		UnitID: "u-1", HouseholdIncome: usd(30000), HouseholdSize: 2,
		Rent: usdPtr(1401), Bedrooms: intPtr(2),
	})
	assert.Equal(t, compliance.BucketMarket, bucket)
}

func TestClassify_RentNeverMovesDown(t *testing.T) {
	// GIVEN: Income qualifies only for 80%, rent fits under the 50% limit
	// THEN: Still 80%
	c := compliance.Classifier{
		Standard:     std2050,
		IncomeLimits: testLimits(),
		RentAnalysis: true,
		RentLimits:   testRentLimits(),
	}

	bucket := c.Classify(compliance.UnitFacts{
		UnitID: "u-1", HouseholdIncome: usd(50000), HouseholdSize: 2,
		Rent: usdPtr(500), Bedrooms: intPtr(2),
	})
	assert.Equal(t, compliance.Bucket80, bucket)
}

func TestClassify_VacantAndNoIncomeIgnoreRent(t *testing.T) {
	c := compliance.Classifier{
		Standard:     std2050,
		IncomeLimits: testLimits(),
		RentAnalysis: true,
		RentLimits:   testRentLimits(),
	}

	vacant := c.Classify(compliance.UnitFacts{UnitID: "u-1", Rent: usdPtr(5000), Bedrooms: intPtr(2)})
	noIncome := c.Classify(compliance.UnitFacts{UnitID: "u-2", HouseholdSize: 1, Rent: usdPtr(5000), Bedrooms: intPtr(2)})

	assert.Equal(t, compliance.BucketVacant, vacant)
	assert.Equal(t, compliance.BucketNoIncome, noIncome)
}

func TestClassify_BypassesWhenRentDataMissing(t *testing.T) {
	// GIVEN: Rent analysis enabled
	// WHEN: Rent, bedrooms or rent limits for the bedroom count are missing
	// THEN: The income bucket stands and each bypass is reported
	obs := &recordingObserver{}
	c := compliance.Classifier{
		Standard:     std2050,
		IncomeLimits: testLimits(),
		RentAnalysis: true,
		RentLimits:   testRentLimits(),
		Observer:     obs,
	}
	base := compliance.UnitFacts{UnitID: "u-1", HouseholdIncome: usd(30000), HouseholdSize: 2}

	noRent := base
	noRent.Bedrooms = intPtr(2)

	noBedrooms := base
	noBedrooms.Rent = usdPtr(9000)

	noLimits := base
	noLimits.Rent = usdPtr(9000)
	noLimits.Bedrooms = intPtr(4)

	assert.Equal(t, compliance.Bucket50, c.Classify(noRent))
	assert.Equal(t, compliance.Bucket50, c.Classify(noBedrooms))
	assert.Equal(t, compliance.Bucket50, c.Classify(noLimits))
	assert.Equal(t, []generic.BypassReason{
		generic.BypassNoRent,
		generic.BypassNoBedrooms,
		generic.BypassNoRentLimits,
	}, obs.bypasses)
}

func TestClassify_RentAnalysisDisabled(t *testing.T) {
	c := compliance.Classifier{
		Standard:     std2050,
		IncomeLimits: testLimits(),
		RentLimits:   testRentLimits(),
	}

	bucket := c.Classify(compliance.UnitFacts{
		UnitID: "u-1", HouseholdIncome: usd(30000), HouseholdSize: 2,
		Rent: usdPtr(9000), Bedrooms: intPtr(2),
	})
	assert.Equal(t, compliance.Bucket50, bucket)
}

func TestAdjustedMaxRent_UtilityAllowanceToggle(t *testing.T) {
	c := compliance.Classifier{
		Standard:          std2050,
		RentLimits:        testRentLimits(),
		UtilityAllowances: compliance.UtilityAllowances{2: usd(100)},
	}

	maxRent, ok := c.AdjustedMaxRent(compliance.Tier50, 2)
	require.True(t, ok)
	assert.True(t, usd(1200).Equal(maxRent), "allowances disabled: got %s", maxRent)

	c.UtilityAllowancesEnabled = true
	maxRent, ok = c.AdjustedMaxRent(compliance.Tier50, 2)
	require.True(t, ok)
	assert.True(t, usd(1100).Equal(maxRent), "allowances enabled: got %s", maxRent)

	_, ok = c.AdjustedMaxRent(compliance.Tier50, 3)
	assert.False(t, ok)
}
