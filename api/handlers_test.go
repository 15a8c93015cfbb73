/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Import, listing and deletion
- Compliance and verification reports
- Error status mapping (400/404)
- Target allocation and scenario endpoints
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compliance-engine/store/memory"
)

const importDoc = `{
  "property": {
    "id": "elm-house", "name": "Elm House",
    "compliance_option": "20/50, 55/80",
    "income_limits": {"50": {"1": 32500, "2": 37150}, "80": {"1": 52000, "2": 59400}},
    "total_units": 3
  },
  "snapshot": {"id": "elm-2025-06", "date": "2025-06-30"},
  "units": [
    {"id": "elm-1", "unit_number": "1", "leases": [{"id": "elm-l1", "start_date": "2025-01-01", "on_rent_roll": true,
      "residents": [{"name": "Ana", "verified_income": "30,000", "income_finalized": true,
        "documents": [{"status": "COMPLETED"}]}]}]},
    {"id": "elm-2", "unit_number": "2", "leases": [{"id": "elm-l2", "start_date": "2025-01-01", "on_rent_roll": true,
      "residents": [{"name": "Bo", "annualized_income": 45000}]}]},
    {"id": "elm-3", "unit_number": "3"}
  ]
}`

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	h := NewHandler(memory.New(), nil)
	return h, NewRouter(h)
}

func do(t *testing.T, srv http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func importElm(t *testing.T, srv http.Handler) {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/properties/import", importDoc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// IMPORT AND LISTING
// =============================================================================

func TestImportSnapshot_Success(t *testing.T) {
	// GIVEN: an empty store
	_, srv := newTestServer(t)

	// WHEN: a rent roll is imported
	rec := do(t, srv, http.MethodPost, "/api/properties/import", importDoc)

	// THEN: it is acknowledged and listed
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, ImportResponse{PropertyID: "elm-house", SnapshotID: "elm-2025-06", Units: 3}, resp)

	props := decode[[]PropertyDTO](t, do(t, srv, http.MethodGet, "/api/properties", ""))
	require.Len(t, props, 1)
	assert.Equal(t, "Elm House", props[0].Name)
	assert.Equal(t, "20% at 50% AMI, 55% at 80% AMI", props[0].ComplianceOption)

	snaps := decode[[]SnapshotDTO](t, do(t, srv, http.MethodGet, "/api/properties/elm-house/snapshots", ""))
	require.Len(t, snaps, 1)
	assert.Equal(t, "2025-06-30", snaps[0].Date)
}

func TestImportSnapshot_ValidationErrorListsFields(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/properties/import",
		`{"property": {"name": "X"}, "snapshot": {"date": "2025-06-30"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Invalid snapshot document", resp.Error)
	assert.Equal(t, []any{"property.compliance_option"}, resp.Details)
}

func TestImportSnapshot_MalformedJSON(t *testing.T) {
	_, srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/properties/import", `{"property":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProperty(t *testing.T) {
	_, srv := newTestServer(t)
	importElm(t, srv)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/properties/elm-house", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, "/api/properties/elm-house", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/properties/elm-house/snapshots", "").Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestGetCompliance(t *testing.T) {
	// GIVEN: an imported property with one 50%, one 80% and one vacant unit
	_, srv := newTestServer(t)
	importElm(t, srv)

	// WHEN: requesting the compliance report
	rec := do(t, srv, http.MethodGet, "/api/properties/elm-house/snapshots/elm-2025-06/compliance", "")

	// THEN: the bucket table and unit rows use the exact labels
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[ComplianceReportDTO](t, rec)
	assert.Equal(t, 3, rep.TotalUnits)
	require.Len(t, rep.Buckets, 6)
	assert.Equal(t, "50% AMI", rep.Buckets[0].Bucket)
	assert.Equal(t, 1, rep.Buckets[0].Target)
	assert.Equal(t, 1, rep.Buckets[0].Compliance)
	assert.Equal(t, "No Income Information", rep.Buckets[5].Bucket)

	require.Len(t, rep.Units, 3)
	assert.Equal(t, "50% AMI", rep.Units[0].ComplianceBucket)
	assert.Equal(t, "30000.00", rep.Units[0].HouseholdIncome)
	assert.Equal(t, "80% AMI", rep.Units[1].ComplianceBucket)
	assert.Equal(t, "Vacant", rep.Units[2].ComplianceBucket)
	assert.Equal(t, 0, rep.Units[2].HouseholdSize)

	// Label-keyed property tallies
	assert.Equal(t, map[string]int{
		"50% AMI": 1, "60% AMI": 0, "80% AMI": 2, "Market": 0, "Vacant": 0, "No Income Information": 0,
	}, rep.TargetCounts)
	assert.Equal(t, 1, rep.BucketCounts["50% AMI"])
	assert.Equal(t, 1, rep.BucketCounts["80% AMI"])
	assert.Equal(t, 1, rep.BucketCounts["Vacant"])
	assert.Equal(t, 2, rep.BucketCountsWithVacants["80% AMI"])
	assert.Equal(t, 0, rep.BucketCountsWithVacants["Vacant"])

	raw := decode[map[string]json.RawMessage](t, rec)
	for _, key := range []string{"targetCounts", "bucketCounts", "bucketCountsWithVacants", "buckets", "units"} {
		assert.Contains(t, raw, key)
	}
}

func TestGetVerification(t *testing.T) {
	_, srv := newTestServer(t)
	importElm(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/properties/elm-house/snapshots/elm-2025-06/verification", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[VerificationReportDTO](t, rec)
	assert.Equal(t, 1, rep.StatusCounts["Verified"])
	assert.Equal(t, 1, rep.StatusCounts["Out of Date Income Documents"])
	assert.Equal(t, 1, rep.StatusCounts["Vacant"])
	assert.Equal(t, 0, rep.StatusCounts["Waiting for Admin Review"])

	require.Len(t, rep.Units, 3)
	assert.Equal(t, "Verified", rep.Units[0].Status)
	assert.Equal(t, 1, rep.Units[0].VerifiedDocuments)
	require.Len(t, rep.Units[0].Residents, 1)
	assert.True(t, rep.Units[0].Residents[0].Verified)
	require.NotNil(t, rep.Units[0].LeaseStartDate)
	assert.Equal(t, "2025-01-01", *rep.Units[0].LeaseStartDate)

	// Exact wire names; a vacant unit has a null start date and no residents
	var raw struct {
		Units []map[string]json.RawMessage `json:"units"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Units, 3)
	assert.JSONEq(t, `1`, string(raw.Units[0]["residentsWithVerifiedIncome"]))
	assert.JSONEq(t, `"2025-01-01"`, string(raw.Units[0]["leaseStartDate"]))
	assert.NotContains(t, raw.Units[0], "verifiedResidents")
	assert.JSONEq(t, `null`, string(raw.Units[2]["leaseStartDate"]))
	assert.JSONEq(t, `[]`, string(raw.Units[2]["residents"]))
}

func TestReports_ErrorMapping(t *testing.T) {
	_, srv := newTestServer(t)
	importElm(t, srv)

	// A unit without an ID is a precondition error at analysis time.
	rec := do(t, srv, http.MethodPost, "/api/properties/import", `{
	  "property": {"id": "no-ids", "name": "No IDs", "compliance_option": "100/80"},
	  "snapshot": {"id": "s1", "date": "2025-06-30"},
	  "units": [{"unit_number": "9"}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown property", "/api/properties/nowhere/snapshots/elm-2025-06/compliance", http.StatusNotFound},
		{"unknown snapshot", "/api/properties/elm-house/snapshots/elm-2030-01/verification", http.StatusNotFound},
		{"missing unit ID", "/api/properties/no-ids/snapshots/s1/compliance", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			assert.NotNil(t, resp.Details)
		})
	}
}

// =============================================================================
// TARGETS
// =============================================================================

func TestGetTargets(t *testing.T) {
	_, srv := newTestServer(t)

	tests := []struct {
		name    string
		query   url.Values
		status  int
		targets map[string]int
	}{
		{
			name:    "20/50-55/80 at 100 units",
			query:   url.Values{"standard": {"20/50, 55/80"}, "units": {"100"}},
			status:  http.StatusOK,
			targets: map[string]int{"50% AMI": 20, "80% AMI": 55, "Market": 25},
		},
		{
			name:    "custom percentage",
			query:   url.Values{"standard": {"custom"}, "percent": {"65"}, "units": {"10"}},
			status:  http.StatusOK,
			targets: map[string]int{"80% AMI": 7, "Market": 3},
		},
		{
			name:   "custom without percentage",
			query:  url.Values{"standard": {"custom"}, "units": {"10"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown standard",
			query:  url.Values{"standard": {"30/30"}, "units": {"10"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "negative units",
			query:  url.Values{"standard": {"100/80"}, "units": {"-1"}},
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/targets?"+tt.query.Encode(), "")

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.targets != nil {
				assert.Equal(t, tt.targets, decode[TargetsDTO](t, rec).Targets)
			}
		})
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarioEndpoints(t *testing.T) {
	_, srv := newTestServer(t)

	list := decode[[]ScenarioDTO](t, do(t, srv, http.MethodGet, "/api/scenarios", ""))
	assert.Len(t, list, len(scenarios))

	assert.Equal(t, "null", trimNewline(do(t, srv, http.MethodGet, "/api/scenarios/current", "").Body.String()))

	rec := do(t, srv, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "maple-court"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	current := decode[ScenarioDTO](t, do(t, srv, http.MethodGet, "/api/scenarios/current", ""))
	assert.Equal(t, "maple-court", current.ID)

	snaps := decode[[]SnapshotDTO](t, do(t, srv, http.MethodGet, "/api/properties/maple-court/snapshots", ""))
	require.Len(t, snaps, 2)
	assert.Equal(t, "maple-2025-06", snaps[0].ID)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/scenarios/load", `{"scenario_id": "nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/scenarios/load", `{}`).Code)
}

func trimNewline(s string) string {
	return string(bytes.TrimRight([]byte(s), "\n"))
}
