// Package storetest is a conformance suite every rentroll.Store must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/rentroll"
	"github.com/warp/compliance-engine/verification"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) rentroll.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newStore(t)) })
	t.Run("HistoryAccumulates", func(t *testing.T) { testHistoryAccumulates(t, newStore(t)) })
	t.Run("ResaveUpserts", func(t *testing.T) { testResaveUpserts(t, newStore(t)) })
	t.Run("SavedValueIsIsolated", func(t *testing.T) { testSavedValueIsIsolated(t, newStore(t)) })
	t.Run("Listing", func(t *testing.T) { testListing(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newStore(t)) })
}

// =============================================================================
// FIXTURES
// =============================================================================

var (
	may  = generic.NewDate(2025, time.May, 31)
	june = generic.NewDate(2025, time.June, 30)
)

func usd(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int { return &v }

func ts(day int) time.Time {
	return time.Date(2025, time.June, day, 9, 30, 0, 0, time.UTC)
}

// Fixture returns one property at the June snapshot with a single occupied
// unit and an empty one.
func Fixture() *rentroll.PropertySnapshot {
	income := compliance.IncomeLimits{}
	income.Set(compliance.Tier50, 2, decimal.NewFromInt(37150))
	income.Set(compliance.Tier80, 2, decimal.NewFromInt(59400))
	rent := compliance.RentLimits{}
	rent.Set(compliance.Tier50, 2, decimal.NewFromInt(1260))

	finalized := ts(2)
	return &rentroll.PropertySnapshot{
		Property: rentroll.Property{
			ID:                       "maple-court",
			Name:                     "Maple Court",
			State:                    "CA",
			Standard:                 compliance.CustomStandard(decimal.NewFromInt(65)),
			RentAnalysis:             true,
			UtilityAllowancesEnabled: true,
			UtilityAllowances:        compliance.UtilityAllowances{2: decimal.NewFromInt(120)},
			RentLimits:               rent,
			IncomeLimits:             income,
			TotalUnits:               2,
		},
		Snapshot: rentroll.Snapshot{ID: "snap-jun", PropertyID: "maple-court", Date: june, UploadedAt: ts(1)},
		Units: []rentroll.Unit{
			{
				ID: "unit-101", PropertyID: "maple-court", UnitNumber: "101",
				Bedrooms: intPtr(2), SquareFootage: intPtr(840),
				Leases: []rentroll.Lease{{
					ID: "lease-1", UnitID: "unit-101",
					Term:      generic.Term{Start: generic.DatePtr(generic.NewDate(2024, time.September, 1))},
					Rent:      usd(1150),
					Type:      rentroll.LeaseCurrent,
					CreatedAt: ts(1),
					Tenancies: []rentroll.Tenancy{{ID: "ten-1", LeaseID: "lease-1", SnapshotID: "snap-jun"}},
					Residents: []rentroll.Resident{{
						ID: "res-1", LeaseID: "lease-1", Name: "Ana Lopez",
						AnnualizedIncome: usd(31200),
						VerifiedIncome:   usd(30480),
						IncomeFinalized:  true,
						FinalizedAt:      &finalized,
						Documents: []rentroll.IncomeDocument{{
							ID: "doc-1", ResidentID: "res-1", Type: "paystub",
							Status: verification.DocumentCompleted, UploadedAt: ts(1), ComputedIncome: usd(30480),
						}},
					}},
				}},
			},
			{ID: "unit-102", PropertyID: "maple-court", UnitNumber: "102", Bedrooms: intPtr(1)},
		},
	}
}

func unitByID(t *testing.T, ps *rentroll.PropertySnapshot, id string) rentroll.Unit {
	t.Helper()
	for _, u := range ps.Units {
		if u.ID == id {
			return u
		}
	}
	require.Failf(t, "unit not found", "unit %s", id)
	return rentroll.Unit{}
}

func leaseByID(t *testing.T, u rentroll.Unit, id string) rentroll.Lease {
	t.Helper()
	for _, l := range u.Leases {
		if l.ID == id {
			return l
		}
	}
	require.Failf(t, "lease not found", "lease %s", id)
	return rentroll.Lease{}
}

// =============================================================================
// TESTS
// =============================================================================

func testRoundTrip(t *testing.T, s rentroll.Store) {
	ctx := context.Background()

	// GIVEN a saved property snapshot
	require.NoError(t, s.SavePropertySnapshot(ctx, Fixture()))

	// WHEN it is loaded back
	ps, err := s.LoadPropertySnapshot(ctx, "maple-court", "snap-jun")
	require.NoError(t, err)

	// THEN every field survives
	p := ps.Property
	assert.Equal(t, "Maple Court", p.Name)
	assert.Equal(t, "CA", p.State)
	assert.Equal(t, compliance.StandardCustom80, p.Standard.Kind)
	assert.True(t, decimal.NewFromInt(65).Equal(p.Standard.CustomPercent))
	assert.True(t, p.RentAnalysis)
	assert.True(t, p.UtilityAllowancesEnabled)
	assert.Equal(t, 2, p.TotalUnits)
	assert.True(t, decimal.NewFromInt(120).Equal(p.UtilityAllowances.For(2)))
	maxRent, ok := p.RentLimits.MaxRent(compliance.Tier50, 2)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(1260).Equal(maxRent))
	ceiling, ok := p.IncomeLimits.Ceiling(compliance.Tier80, 2)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(59400).Equal(ceiling))

	assert.Equal(t, "snap-jun", ps.Snapshot.ID)
	assert.True(t, ps.Snapshot.Date.Equal(june))

	require.Len(t, ps.Units, 2)
	unit := unitByID(t, ps, "unit-101")
	assert.Equal(t, "101", unit.UnitNumber)
	require.NotNil(t, unit.Bedrooms)
	assert.Equal(t, 2, *unit.Bedrooms)
	assert.Equal(t, 840, *unit.SquareFootage)

	lease := leaseByID(t, unit, "lease-1")
	assert.Equal(t, rentroll.LeaseCurrent, lease.Type)
	assert.True(t, lease.LinkedTo("snap-jun"))
	assert.Equal(t, "2024-09-01", lease.Term.Start.String())
	assert.Nil(t, lease.Term.End)
	require.NotNil(t, lease.Rent)
	assert.True(t, decimal.NewFromInt(1150).Equal(*lease.Rent))
	assert.True(t, lease.CreatedAt.Equal(ts(1)))

	require.Len(t, lease.Residents, 1)
	res := lease.Residents[0]
	assert.Equal(t, "Ana Lopez", res.Name)
	assert.True(t, res.HasFinalizedIncome())
	assert.True(t, decimal.NewFromInt(30480).Equal(res.EffectiveIncome()))
	assert.Nil(t, res.OriginalIncome)
	require.NotNil(t, res.FinalizedAt)
	assert.True(t, res.FinalizedAt.Equal(ts(2)))
	require.Len(t, res.Documents, 1)
	assert.Equal(t, verification.DocumentCompleted, res.Documents[0].Status)
	assert.Equal(t, "paystub", res.Documents[0].Type)

	empty := unitByID(t, ps, "unit-102")
	assert.Empty(t, empty.Leases)
	assert.Nil(t, empty.SquareFootage)
}

func testHistoryAccumulates(t *testing.T, s rentroll.Store) {
	ctx := context.Background()

	// GIVEN the May upload with one lease
	mayDoc := Fixture()
	mayDoc.Snapshot = rentroll.Snapshot{ID: "snap-may", PropertyID: "maple-court", Date: may, UploadedAt: ts(1)}
	mayDoc.Units[0].Leases[0].Tenancies = []rentroll.Tenancy{{ID: "ten-may", LeaseID: "lease-1", SnapshotID: "snap-may"}}
	require.NoError(t, s.SavePropertySnapshot(ctx, mayDoc))

	// AND the June upload re-creating the lease under a new ID
	juneDoc := Fixture()
	relisted := juneDoc.Units[0].Leases[0]
	relisted.ID = "lease-2"
	relisted.CreatedAt = ts(3)
	relisted.Tenancies = []rentroll.Tenancy{{ID: "ten-jun", LeaseID: "lease-2", SnapshotID: "snap-jun"}}
	relisted.Residents = []rentroll.Resident{{ID: "res-2", LeaseID: "lease-2", Name: "Ana Lopez", AnnualizedIncome: usd(31200)}}
	juneDoc.Units[0].Leases = []rentroll.Lease{relisted}
	require.NoError(t, s.SavePropertySnapshot(ctx, juneDoc))

	// WHEN the June snapshot is loaded
	ps, err := s.LoadPropertySnapshot(ctx, "maple-court", "snap-jun")
	require.NoError(t, err)

	// THEN the unit carries both leases, each linked to its own upload
	unit := unitByID(t, ps, "unit-101")
	require.Len(t, unit.Leases, 2)
	assert.True(t, leaseByID(t, unit, "lease-1").LinkedTo("snap-may"))
	assert.False(t, leaseByID(t, unit, "lease-1").LinkedTo("snap-jun"))
	assert.True(t, leaseByID(t, unit, "lease-2").LinkedTo("snap-jun"))
}

func testResaveUpserts(t *testing.T, s rentroll.Store) {
	ctx := context.Background()

	// GIVEN a saved snapshot
	require.NoError(t, s.SavePropertySnapshot(ctx, Fixture()))

	// WHEN the same records are saved again with a corrected income
	doc := Fixture()
	doc.Units[0].Leases[0].Residents[0].VerifiedIncome = usd(29000)
	require.NoError(t, s.SavePropertySnapshot(ctx, doc))

	// THEN the record is updated in place
	ps, err := s.LoadPropertySnapshot(ctx, "maple-court", "snap-jun")
	require.NoError(t, err)
	unit := unitByID(t, ps, "unit-101")
	require.Len(t, unit.Leases, 1)
	lease := unit.Leases[0]
	assert.Len(t, lease.Tenancies, 1)
	require.Len(t, lease.Residents, 1)
	assert.True(t, decimal.NewFromInt(29000).Equal(*lease.Residents[0].VerifiedIncome))
	assert.Len(t, lease.Residents[0].Documents, 1)
}

func testSavedValueIsIsolated(t *testing.T, s rentroll.Store) {
	ctx := context.Background()

	// GIVEN a saved snapshot
	doc := Fixture()
	require.NoError(t, s.SavePropertySnapshot(ctx, doc))

	// WHEN the caller mutates its value and the loaded value
	doc.Units[0].Leases[0].Residents[0].Name = "changed"
	first, err := s.LoadPropertySnapshot(ctx, "maple-court", "snap-jun")
	require.NoError(t, err)
	unitByID(t, first, "unit-101").Leases[0].Residents[0].Name = "changed again"

	// THEN the stored records are unaffected
	second, err := s.LoadPropertySnapshot(ctx, "maple-court", "snap-jun")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lopez", unitByID(t, second, "unit-101").Leases[0].Residents[0].Name)
}

func testListing(t *testing.T, s rentroll.Store) {
	ctx := context.Background()

	// GIVEN two properties, one with two snapshots
	mayDoc := Fixture()
	mayDoc.Snapshot = rentroll.Snapshot{ID: "snap-may", PropertyID: "maple-court", Date: may, UploadedAt: ts(1)}
	require.NoError(t, s.SavePropertySnapshot(ctx, mayDoc))
	require.NoError(t, s.SavePropertySnapshot(ctx, Fixture()))

	other := Fixture()
	other.Property.ID = "aspen-row"
	other.Property.Name = "Aspen Row"
	other.Snapshot = rentroll.Snapshot{ID: "aspen-jun", PropertyID: "aspen-row", Date: june, UploadedAt: ts(1)}
	other.Units = nil
	require.NoError(t, s.SavePropertySnapshot(ctx, other))

	// WHEN listing
	props, err := s.ListProperties(ctx)
	require.NoError(t, err)
	snaps, err := s.ListSnapshots(ctx, "maple-court")
	require.NoError(t, err)

	// THEN properties are ordered by name and snapshots newest first
	require.Len(t, props, 2)
	assert.Equal(t, "Aspen Row", props[0].Name)
	assert.Equal(t, "Maple Court", props[1].Name)

	require.Len(t, snaps, 2)
	assert.Equal(t, "snap-jun", snaps[0].ID)
	assert.Equal(t, "snap-may", snaps[1].ID)
}

func testNotFound(t *testing.T, s rentroll.Store) {
	ctx := context.Background()
	require.NoError(t, s.SavePropertySnapshot(ctx, Fixture()))

	_, err := s.LoadPropertySnapshot(ctx, "nowhere", "snap-jun")
	assert.ErrorIs(t, err, generic.ErrPropertyNotFound)

	_, err = s.LoadPropertySnapshot(ctx, "maple-court", "snap-dec")
	assert.ErrorIs(t, err, generic.ErrSnapshotNotFound)
	assert.True(t, generic.IsNotFound(err))

	_, err = s.ListSnapshots(ctx, "nowhere")
	assert.ErrorIs(t, err, generic.ErrPropertyNotFound)

	assert.ErrorIs(t, s.DeleteProperty(ctx, "nowhere"), generic.ErrPropertyNotFound)
}

func testDeleteCascades(t *testing.T, s rentroll.Store) {
	ctx := context.Background()

	// GIVEN a saved property
	require.NoError(t, s.SavePropertySnapshot(ctx, Fixture()))

	// WHEN it is deleted
	require.NoError(t, s.DeleteProperty(ctx, "maple-court"))

	// THEN nothing under it remains
	_, err := s.LoadPropertySnapshot(ctx, "maple-court", "snap-jun")
	assert.ErrorIs(t, err, generic.ErrPropertyNotFound)
	props, err := s.ListProperties(ctx)
	require.NoError(t, err)
	assert.Empty(t, props)

	// AND the same IDs can be imported again
	require.NoError(t, s.SavePropertySnapshot(ctx, Fixture()))
	ps, err := s.LoadPropertySnapshot(ctx, "maple-court", "snap-jun")
	require.NoError(t, err)
	assert.Len(t, ps.Units, 2)
}
