package factory_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/factory"
	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/rentroll"
	"github.com/warp/compliance-engine/verification"
)

const mapleCourt = `{
  "property": {
    "id": "maple-court",
    "name": " Maple Court ",
    "state": "ca",
    "compliance_option": "20% at 50% AMI, 55% at 80% AMI",
    "rent_analysis": true,
    "utility_allowances_enabled": true,
    "utility_allowances": {"2": "$120.00"},
    "rent_limits": {"50% AMI": {"2": 1260}, "80": {"2": "1,680"}},
    "income_limits": {"50": {"1": 32500, "2": "37,150"}},
    "total_units": 24
  },
  "snapshot": {"id": "2025-06", "date": "06/30/2025"},
  "units": [{
    "id": "unit-101", "unit_number": "101", "bedrooms": 2,
    "leases": [{
      "id": "lease-1", "start_date": "09/01/2024", "end_date": "2025-08-31",
      "rent": "$1,150.00", "type": "Current", "on_rent_roll": true,
      "snapshot_ids": ["2025-05", "2025-06"],
      "residents": [{
        "id": "res-1", "name": "Ana Lopez",
        "annualized_income": "31,200", "verified_income": 30480,
        "income_finalized": true, "finalized_at": "2025-06-02T10:00:00Z",
        "documents": [{"type": "paystub", "status": "completed"}, {"type": "w2", "status": "needs review"}]
      }]
    }]
  }]
}`

func TestParseSnapshot_ConvertsDocument(t *testing.T) {
	// GIVEN a well-formed document with spreadsheet formatting
	f := factory.NewSnapshotFactory()

	// WHEN it is parsed
	ps, err := f.ParseSnapshot([]byte(mapleCourt))

	// THEN every record is converted
	require.NoError(t, err)
	assert.Equal(t, "maple-court", ps.Property.ID)
	assert.Equal(t, "Maple Court", ps.Property.Name)
	assert.Equal(t, "CA", ps.Property.State)
	assert.Equal(t, compliance.Standard2050_5580, ps.Property.Standard.Kind)
	assert.True(t, ps.Property.RentAnalysis)
	assert.Equal(t, 24, ps.Property.TotalUnits)
	assert.True(t, decimal.NewFromInt(120).Equal(ps.Property.UtilityAllowances.For(2)))

	maxRent, ok := ps.Property.RentLimits.MaxRent(compliance.Tier80, 2)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(1680).Equal(maxRent))
	ceiling, ok := ps.Property.IncomeLimits.Ceiling(compliance.Tier50, 2)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(37150).Equal(ceiling))

	assert.Equal(t, "2025-06", ps.Snapshot.ID)
	assert.Equal(t, "maple-court", ps.Snapshot.PropertyID)
	assert.Equal(t, "2025-06-30", ps.Snapshot.Date.String())

	require.Len(t, ps.Units, 1)
	unit := ps.Units[0]
	assert.Equal(t, "101", unit.UnitNumber)
	require.Len(t, unit.Leases, 1)

	lease := unit.Leases[0]
	assert.Equal(t, rentroll.LeaseCurrent, lease.Type)
	assert.Equal(t, "2024-09-01", lease.Term.Start.String())
	require.NotNil(t, lease.Rent)
	assert.True(t, decimal.NewFromInt(1150).Equal(*lease.Rent))
	assert.True(t, lease.LinkedTo("2025-06"))
	assert.True(t, lease.LinkedTo("2025-05"))
	assert.Len(t, lease.Tenancies, 2, "duplicate snapshot links collapse")

	require.Len(t, lease.Residents, 1)
	res := lease.Residents[0]
	assert.Equal(t, "lease-1", res.LeaseID)
	assert.True(t, res.HasFinalizedIncome())
	require.NotNil(t, res.FinalizedAt)
	require.Len(t, res.Documents, 2)
	assert.Equal(t, verification.DocumentCompleted, res.Documents[0].Status)
	assert.Equal(t, verification.DocumentNeedsReview, res.Documents[1].Status)
	assert.NotEmpty(t, res.Documents[0].ID, "missing document IDs are generated")
}

func TestParseSnapshot_TenancyIDsAreStable(t *testing.T) {
	// GIVEN the same document imported twice
	f := factory.NewSnapshotFactory()

	first, err := f.ParseSnapshot([]byte(mapleCourt))
	require.NoError(t, err)
	second, err := f.ParseSnapshot([]byte(mapleCourt))
	require.NoError(t, err)

	// THEN tenancy IDs match so re-imports do not duplicate links
	assert.Equal(t, first.Units[0].Leases[0].Tenancies, second.Units[0].Leases[0].Tenancies)
}

func TestParseSnapshot_UnparseableAmountsAreNotReported(t *testing.T) {
	// GIVEN a lease with a placeholder rent and a resident with "N/A" income
	doc := `{
	  "property": {"name": "P", "compliance_option": "100/80"},
	  "snapshot": {"date": "2025-06-30"},
	  "units": [{"id": "u1", "unit_number": "1", "leases": [{"rent": "TBD", "on_rent_roll": true,
	    "residents": [{"name": "X", "annualized_income": "N/A"}]}]}]
	}`

	// WHEN parsed
	ps, err := factory.NewSnapshotFactory().ParseSnapshot([]byte(doc))

	// THEN the amounts are nil rather than an error, and IDs are generated
	require.NoError(t, err)
	lease := ps.Units[0].Leases[0]
	assert.Nil(t, lease.Rent)
	assert.Nil(t, lease.Residents[0].AnnualizedIncome)
	assert.NotEmpty(t, ps.Property.ID)
	assert.NotEmpty(t, ps.Snapshot.ID)
	assert.NotEmpty(t, lease.ID)
	assert.Nil(t, lease.Term.Start)
}

func TestParseSnapshot_MissingUnitIDIsKept(t *testing.T) {
	// GIVEN a unit without an ID
	doc := `{
	  "property": {"name": "P", "compliance_option": "100/80"},
	  "snapshot": {"date": "2025-06-30"},
	  "units": [{"unit_number": "7"}]
	}`

	// WHEN parsed
	ps, err := factory.NewSnapshotFactory().ParseSnapshot([]byte(doc))

	// THEN the import succeeds and the engine reports it later
	require.NoError(t, err)
	assert.Empty(t, ps.Units[0].ID)
}

func TestParseSnapshot_CustomStandard(t *testing.T) {
	doc := `{
	  "property": {"name": "P", "compliance_option": "Custom", "custom_percent": "65"},
	  "snapshot": {"date": "2025-06-30"}
	}`

	ps, err := factory.NewSnapshotFactory().ParseSnapshot([]byte(doc))

	require.NoError(t, err)
	assert.Equal(t, compliance.StandardCustom80, ps.Property.Standard.Kind)
	assert.True(t, decimal.NewFromInt(65).Equal(ps.Property.Standard.CustomPercent))
}

func TestParseSnapshot_RequiredFields(t *testing.T) {
	// GIVEN a document missing the property name, the option and a unit number
	doc := `{
	  "property": {},
	  "snapshot": {"date": "2025-06-30"},
	  "units": [{"id": "u1"}]
	}`

	// WHEN parsed
	_, err := factory.NewSnapshotFactory().ParseSnapshot([]byte(doc))

	// THEN a validation error names every field by its JSON path
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidSnapshot))
	assert.True(t, generic.IsClientError(err))

	var verr *generic.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{"property.name", "property.compliance_option", "units[0].unit_number"}, verr.Fields)
}

func TestParseSnapshot_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			name:  "unknown compliance option",
			doc:   `{"property": {"name": "P", "compliance_option": "30/30"}, "snapshot": {"date": "2025-06-30"}}`,
			field: "property.compliance_option",
		},
		{
			name:  "unknown tier",
			doc:   `{"property": {"name": "P", "compliance_option": "100/80", "income_limits": {"70": {"1": 1}}}, "snapshot": {"date": "2025-06-30"}}`,
			field: "property.income_limits.70",
		},
		{
			name:  "non-numeric household size",
			doc:   `{"property": {"name": "P", "compliance_option": "100/80", "income_limits": {"80": {"one": 1}}}, "snapshot": {"date": "2025-06-30"}}`,
			field: "property.income_limits.80.one",
		},
		{
			name:  "malformed snapshot date",
			doc:   `{"property": {"name": "P", "compliance_option": "100/80"}, "snapshot": {"date": "June"}}`,
			field: "snapshot.date",
		},
		{
			name: "unknown lease type",
			doc: `{"property": {"name": "P", "compliance_option": "100/80"}, "snapshot": {"date": "2025-06-30"},
			       "units": [{"id": "u", "unit_number": "1", "leases": [{"type": "past"}]}]}`,
			field: "units[0].leases[0].type",
		},
		{
			name: "unknown document status",
			doc: `{"property": {"name": "P", "compliance_option": "100/80"}, "snapshot": {"date": "2025-06-30"},
			       "units": [{"id": "u", "unit_number": "1", "leases": [{"residents": [{"name": "A",
			         "documents": [{"status": "LOST"}]}]}]}]}`,
			field: "units[0].leases[0].residents[0].documents[0].status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.NewSnapshotFactory().ParseSnapshot([]byte(tt.doc))

			var verr *generic.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestParseSnapshot_MalformedJSON(t *testing.T) {
	_, err := factory.NewSnapshotFactory().ParseSnapshot([]byte(`{"property":`))

	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidSnapshot))
}

func TestParseSnapshot_DefaultRentAnalysis(t *testing.T) {
	omitted := `{"property": {"name": "P", "compliance_option": "100/80"}, "snapshot": {"date": "2025-06-30"}}`
	explicit := `{"property": {"name": "P", "compliance_option": "100/80", "rent_analysis": false}, "snapshot": {"date": "2025-06-30"}}`

	// GIVEN a factory that enables rent analysis by default
	f := factory.NewSnapshotFactory()
	f.DefaultRentAnalysis = true

	// WHEN documents omit or set the flag
	a, err := f.ParseSnapshot([]byte(omitted))
	require.NoError(t, err)
	b, err := f.ParseSnapshot([]byte(explicit))
	require.NoError(t, err)

	// THEN the default only fills the gap
	assert.True(t, a.Property.RentAnalysis)
	assert.False(t, b.Property.RentAnalysis)
}

func TestParseSnapshot_LeasesWithoutCreatedAtFollowDocumentOrder(t *testing.T) {
	// GIVEN two leases on the rent roll with neither IDs nor creation times
	doc := `{
	  "property": {"name": "P", "compliance_option": "100/80"},
	  "snapshot": {"id": "s1", "date": "2025-06-30"},
	  "units": [{"id": "u1", "unit_number": "1", "leases": [
	    {"start_date": "2025-01-01", "on_rent_roll": true, "residents": [{"name": "First"}]},
	    {"start_date": "2025-01-01", "on_rent_roll": true, "residents": [{"name": "Second"}]}
	  ]}]
	}`

	for i := 0; i < 5; i++ {
		// WHEN parsed and the governing lease selected
		ps, err := factory.NewSnapshotFactory().ParseSnapshot([]byte(doc))
		require.NoError(t, err)
		leases := ps.Units[0].Leases
		require.Len(t, leases, 2)

		// THEN the later entry is newer, whatever IDs were generated
		assert.True(t, leases[1].CreatedAt.After(leases[0].CreatedAt))
		sel := rentroll.SelectLease(leases, ps.Snapshot)
		require.False(t, sel.Vacant())
		assert.Equal(t, "Second", sel.Lease.Residents[0].Name)
	}
}
