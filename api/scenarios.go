/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built rent rolls that populate the store with realistic
	data for demos. Each scenario is a sequence of import documents pushed
	through the same factory and store path as a real upload.

AVAILABLE SCENARIOS:

	maple-court:   20/50-55/80 property with two uploads. Covers inherited
	               verification, future leases, admin review, rent float-up,
	               grandfathering and a vacant unit
	aspen-row:     40/60-35/80 property with rent analysis and utility
	               allowances, limits published per snapshot
	birch-commons: Custom 65% at 80% AMI, including a no-income resident

HOW SCENARIOS WORK:
 1. Delete every stored property
 2. Build import documents (factory.SnapshotJSON)
 3. Convert and save each document in upload order

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "maple-court"}

NOTE:

	Loading a scenario deletes all stored data. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Handler wiring
  - factory/snapshot.go: Import document schema
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/warp/compliance-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "maple-court",
		Name:        "Maple Court",
		Description: "Re-uploaded rent roll with inherited verification, future leases and grandfathering",
		Category:    "20/50-55/80",
	},
	{
		ID:          "aspen-row",
		Name:        "Aspen Row",
		Description: "Rent analysis with utility allowances floating units up",
		Category:    "40/60-35/80",
	},
	{
		ID:          "birch-commons",
		Name:        "Birch Commons",
		Description: "Custom percentage at 80% AMI with a no-income household",
		Category:    "custom",
	},
}

var scenarioLoaders = map[string]func() []factory.SnapshotJSON{
	"maple-court":   mapleCourtScenario,
	"aspen-row":     aspenRowScenario,
	"birch-commons": birchCommonsScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the stored data with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "scenario_id is required", err)
		return
	}

	loader, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.LoadScenarioDocuments(r.Context(), loader()); err != nil {
		h.currentScenario = ""
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Log.WithField("scenario", req.ScenarioID).Info("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// LoadScenarioDocuments clears the store and imports docs in order.
func (h *Handler) LoadScenarioDocuments(ctx context.Context, docs []factory.SnapshotJSON) error {
	props, err := h.Store.ListProperties(ctx)
	if err != nil {
		return err
	}
	for _, p := range props {
		if err := h.Store.DeleteProperty(ctx, p.ID); err != nil {
			return err
		}
	}

	for _, doc := range docs {
		ps, err := h.Factory.FromJSON(doc)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", doc.Snapshot.ID, err)
		}
		if err := h.Store.SavePropertySnapshot(ctx, ps); err != nil {
			return fmt.Errorf("snapshot %s: %w", doc.Snapshot.ID, err)
		}
	}
	return nil
}

// =============================================================================
// DOCUMENT BUILDERS
// =============================================================================

func amt(v int) factory.Amount {
	return factory.Amount(strconv.Itoa(v))
}

func flag(v bool) *bool { return &v }

func bedrooms(n int) *int { return &n }

// table builds a tier table from per-tier rows indexed from 1.
func table(rows map[string][]int) factory.TierTable {
	t := factory.TierTable{}
	for tier, amounts := range rows {
		t[tier] = map[string]factory.Amount{}
		for i, a := range amounts {
			t[tier][strconv.Itoa(i+1)] = amt(a)
		}
	}
	return t
}

func verifiedResident(id, name string, income int) factory.ResidentJSON {
	return factory.ResidentJSON{
		ID:              id,
		Name:            name,
		VerifiedIncome:  amt(income),
		IncomeFinalized: true,
		FinalizedAt:     "2025-05-20T15:00:00Z",
		Documents: []factory.DocumentJSON{
			{ID: id + "-paystub", Type: "paystub", Status: "COMPLETED", ComputedIncome: amt(income)},
		},
	}
}

func reportedResident(id, name string, income int, docStatuses ...string) factory.ResidentJSON {
	r := factory.ResidentJSON{ID: id, Name: name, AnnualizedIncome: amt(income)}
	for i, st := range docStatuses {
		r.Documents = append(r.Documents, factory.DocumentJSON{
			ID:     fmt.Sprintf("%s-doc-%d", id, i+1),
			Type:   "paystub",
			Status: st,
		})
	}
	return r
}

func currentLease(id, start, end string, rent int, residents ...factory.ResidentJSON) factory.LeaseJSON {
	return factory.LeaseJSON{
		ID:         id,
		StartDate:  start,
		EndDate:    end,
		Rent:       amt(rent),
		OnRentRoll: true,
		CreatedAt:  "2025-05-01T08:00:00Z",
		Residents:  residents,
	}
}

func futureLease(id, start string, rent int, residents ...factory.ResidentJSON) factory.LeaseJSON {
	return factory.LeaseJSON{
		ID:        id,
		StartDate: start,
		Rent:      amt(rent),
		Type:      "future",
		CreatedAt: "2025-06-01T08:00:00Z",
		Residents: residents,
	}
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// mapleCourtScenario uploads May then June. Unit 102's lease was re-created
// in June without verification; the May copy carries it.
func mapleCourtScenario() []factory.SnapshotJSON {
	property := factory.PropertyJSON{
		ID:                       "maple-court",
		Name:                     "Maple Court",
		State:                    "CA",
		ComplianceOption:         "20% at 50% AMI, 55% at 80% AMI",
		RentAnalysis:             flag(true),
		UtilityAllowancesEnabled: true,
		UtilityAllowances:        map[string]factory.Amount{"1": amt(60), "2": amt(80)},
		IncomeLimits: table(map[string][]int{
			"50% AMI": {32500, 37150, 41800, 46400, 50150, 53850, 57550, 61250},
			"80% AMI": {52000, 59400, 66850, 74250, 80200, 86150, 92100, 98050},
		}),
		RentLimits: factory.TierTable{
			"50% AMI": {"1": amt(870), "2": amt(1045)},
			"80% AMI": {"1": amt(1392), "2": amt(1672)},
		},
		TotalUnits: 10,
	}

	ortizMay := currentLease("lease-102-may", "2024-07-01", "2025-06-30", 1150,
		verifiedResident("res-102-ben", "Ben Ortiz", 25000),
		verifiedResident("res-102-carla", "Carla Ortiz", 15000),
	)
	ortizJune := currentLease("lease-102-jun", "2024-07-01", "2025-06-30", 1150,
		reportedResident("res-102-ben-jun", "Ben Ortiz", 26000),
		reportedResident("res-102-carla-jun", "Carla Ortiz", 15500),
	)
	ortizJune.CreatedAt = "2025-06-28T08:00:00Z"

	may := factory.SnapshotJSON{
		Property: property,
		Snapshot: factory.SnapshotMetaJSON{ID: "maple-2025-05", Date: "2025-05-31", UploadedAt: "2025-06-01T09:00:00Z"},
		Units: []factory.UnitJSON{
			{ID: "maple-102", UnitNumber: "102", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{ortizMay}},
		},
	}

	grandfathered := verifiedResident("res-107-dana", "Dana Reyes", 55000)
	grandfathered.OriginalIncome = amt(28000)

	june := factory.SnapshotJSON{
		Property: property,
		Snapshot: factory.SnapshotMetaJSON{ID: "maple-2025-06", Date: "2025-06-30", UploadedAt: "2025-07-01T09:00:00Z"},
		Units: []factory.UnitJSON{
			{ID: "maple-101", UnitNumber: "101", Bedrooms: bedrooms(1), Leases: []factory.LeaseJSON{
				currentLease("lease-101", "2024-03-01", "2026-02-28", 800, verifiedResident("res-101-ana", "Ana Lopez", 30000)),
			}},
			{ID: "maple-102", UnitNumber: "102", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{ortizJune}},
			{ID: "maple-103", UnitNumber: "103", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{
				currentLease("lease-103", "2025-01-01", "2025-12-31", 1000,
					verifiedResident("res-103-eli", "Eli Park", 20000),
					reportedResident("res-103-fay", "Fay Park", 18000, "NEEDS_REVIEW"),
				),
			}},
			{ID: "maple-104", UnitNumber: "104", Bedrooms: bedrooms(1), Leases: []factory.LeaseJSON{
				futureLease("lease-104", "2025-08-01", 850, reportedResident("res-104-gil", "Gil Moss", 31000)),
			}},
			{ID: "maple-105", UnitNumber: "105", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{
				futureLease("lease-105", "2025-06-15", 1300, reportedResident("res-105-hal", "Hal Innes", 45000)),
			}},
			{ID: "maple-106", UnitNumber: "106", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{
				currentLease("lease-106", "2024-10-01", "2025-09-30", 1200, verifiedResident("res-106-ivy", "Ivy Chen", 30000)),
			}},
			{ID: "maple-107", UnitNumber: "107", Bedrooms: bedrooms(1), Leases: []factory.LeaseJSON{
				currentLease("lease-107", "2022-04-01", "2026-03-31", 800, grandfathered),
			}},
			{ID: "maple-108", UnitNumber: "108", Bedrooms: bedrooms(1)},
			{ID: "maple-109", UnitNumber: "109", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{
				currentLease("lease-109", "2025-02-01", "2026-01-31", 1000,
					verifiedResident("res-109-jo", "Jo Quinn", 20000),
					reportedResident("res-109-kai", "Kai Quinn", 22000, "PROCESSING"),
				),
			}},
			{ID: "maple-110", UnitNumber: "110", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{
				currentLease("lease-110", "2024-12-01", "2025-11-30", 1600, verifiedResident("res-110-lee", "Lee Novak", 90000)),
			}},
		},
	}

	return []factory.SnapshotJSON{may, june}
}

// aspenRowScenario publishes income limits on the snapshot itself.
func aspenRowScenario() []factory.SnapshotJSON {
	return []factory.SnapshotJSON{{
		Property: factory.PropertyJSON{
			ID:                       "aspen-row",
			Name:                     "Aspen Row",
			State:                    "OR",
			ComplianceOption:         "40/60, 35/80",
			RentAnalysis:             flag(true),
			UtilityAllowancesEnabled: true,
			UtilityAllowances:        map[string]factory.Amount{"1": amt(75), "2": amt(95)},
			RentLimits: factory.TierTable{
				"50": {"1": amt(900), "2": amt(1080)},
				"60": {"1": amt(1080), "2": amt(1296)},
				"80": {"1": amt(1440), "2": amt(1728)},
			},
		},
		Snapshot: factory.SnapshotMetaJSON{
			ID:   "aspen-2025-06",
			Date: "2025-06-30",
			IncomeLimits: table(map[string][]int{
				"50": {33000, 37700, 42400, 47100},
				"60": {39600, 45240, 50880, 56520},
				"80": {52800, 60320, 67840, 75360},
			}),
		},
		Units: []factory.UnitJSON{
			{ID: "aspen-1", UnitNumber: "1", Bedrooms: bedrooms(1), Leases: []factory.LeaseJSON{
				currentLease("aspen-lease-1", "2025-01-01", "2025-12-31", 820, verifiedResident("aspen-res-1", "Mia Ford", 31000)),
			}},
			{ID: "aspen-2", UnitNumber: "2", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{
				currentLease("aspen-lease-2", "2025-01-01", "2025-12-31", 1250, verifiedResident("aspen-res-2", "Ned Ford", 36000)),
			}},
			{ID: "aspen-3", UnitNumber: "3", Bedrooms: bedrooms(2), Leases: []factory.LeaseJSON{
				currentLease("aspen-lease-3", "2025-03-01", "2026-02-28", 1500, verifiedResident("aspen-res-3", "Oli Grant", 50000)),
			}},
			{ID: "aspen-4", UnitNumber: "4", Leases: []factory.LeaseJSON{
				currentLease("aspen-lease-4", "2025-03-01", "2026-02-28", 1500, reportedResident("aspen-res-4", "Pat Hale", 30000)),
			}},
			{ID: "aspen-5", UnitNumber: "5", Bedrooms: bedrooms(1)},
		},
	}}
}

func birchCommonsScenario() []factory.SnapshotJSON {
	noIncome := factory.ResidentJSON{ID: "birch-res-2", Name: "Quinn Ames", HasNoIncome: true}

	return []factory.SnapshotJSON{{
		Property: factory.PropertyJSON{
			ID:               "birch-commons",
			Name:             "Birch Commons",
			State:            "WA",
			ComplianceOption: "Custom at 80",
			CustomPercent:    amt(65),
			IncomeLimits: table(map[string][]int{
				"80": {58000, 66250, 74550, 82800},
			}),
			TotalUnits: 4,
		},
		Snapshot: factory.SnapshotMetaJSON{ID: "birch-2025-06", Date: "2025-06-30"},
		Units: []factory.UnitJSON{
			{ID: "birch-a", UnitNumber: "A", Leases: []factory.LeaseJSON{
				currentLease("birch-lease-a", "2025-01-01", "2025-12-31", 1400, verifiedResident("birch-res-1", "Rae Burns", 52000)),
			}},
			{ID: "birch-b", UnitNumber: "B", Leases: []factory.LeaseJSON{
				currentLease("birch-lease-b", "2025-01-01", "2025-12-31", 1100, noIncome),
			}},
			{ID: "birch-c", UnitNumber: "C", Leases: []factory.LeaseJSON{
				currentLease("birch-lease-c", "2025-02-01", "2026-01-31", 2100, verifiedResident("birch-res-3", "Sam Yu", 120000)),
			}},
			{ID: "birch-d", UnitNumber: "D"},
		},
	}}
}
