/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's result types from the external API contract. Bucket and
  status labels are emitted verbatim ("50% AMI", "Needs Review"): clients
  match on them.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

MONEY:
  Amounts are decimal strings ("31200.00") so clients never see float
  rounding.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/snapshot.go: Import document schema
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/rentroll"
	"github.com/warp/compliance-engine/verification"
)

// =============================================================================
// PROPERTIES AND SNAPSHOTS
// =============================================================================

// PropertyDTO represents a property in API responses.
type PropertyDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	State            string `json:"state,omitempty"`
	ComplianceOption string `json:"complianceOption"`
	RentAnalysis     bool   `json:"rentAnalysis"`
	TotalUnits       int    `json:"totalUnits"`
}

// SnapshotDTO represents one rent roll upload.
type SnapshotDTO struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	UploadedAt string `json:"uploadedAt"`
}

// ImportResponse acknowledges an imported snapshot.
type ImportResponse struct {
	PropertyID string `json:"propertyId"`
	SnapshotID string `json:"snapshotId"`
	Units      int    `json:"units"`
}

// =============================================================================
// COMPLIANCE
// =============================================================================

// BucketCountDTO is one row of the compliance table.
type BucketCountDTO struct {
	Bucket      string `json:"bucket"`
	Target      int    `json:"target"`
	Actual      int    `json:"actual"`
	Compliance  int    `json:"compliance"`
	WithVacants int    `json:"withVacants"`
	OverUnder   int    `json:"overUnder"`
}

// UnitComplianceDTO is one unit's classification.
type UnitComplianceDTO struct {
	UnitID           string  `json:"unitId"`
	UnitNumber       string  `json:"unitNumber"`
	LeaseID          string  `json:"leaseId,omitempty"`
	LeaseKind        string  `json:"leaseKind,omitempty"`
	LeaseStartDate   *string `json:"leaseStartDate,omitempty"`
	HouseholdSize    int     `json:"householdSize"`
	HouseholdIncome  string  `json:"householdIncome"`
	ActualBucket     string  `json:"actualBucket"`
	OriginalBucket   string  `json:"originalBucket"`
	ComplianceBucket string  `json:"complianceBucket"`
}

// ComplianceReportDTO is the property compliance report.
type ComplianceReportDTO struct {
	PropertyID       string              `json:"propertyId"`
	SnapshotID       string              `json:"snapshotId"`
	SnapshotDate     string              `json:"snapshotDate"`
	ComplianceOption string              `json:"complianceOption"`
	TotalUnits       int                 `json:"totalUnits"`

	// Label-keyed tallies: every bucket label is present, zero included.
	TargetCounts            map[string]int `json:"targetCounts"`
	BucketCounts            map[string]int `json:"bucketCounts"`
	BucketCountsWithVacants map[string]int `json:"bucketCountsWithVacants"`

	Buckets []BucketCountDTO    `json:"buckets"`
	Units   []UnitComplianceDTO `json:"units"`
}

// =============================================================================
// VERIFICATION
// =============================================================================

// ResidentDTO is one household member's verification state.
type ResidentDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Verified   bool   `json:"verified"`
	InProgress bool   `json:"inProgress"`
	Documents  int    `json:"documents"`
	Income     string `json:"income"`
}

// UnitVerificationDTO is one unit's verification status.
type UnitVerificationDTO struct {
	UnitID            string        `json:"unitId"`
	UnitNumber        string        `json:"unitNumber"`
	Status            string        `json:"status"`
	TotalResidents    int           `json:"totalResidents"`
	VerifiedResidents int           `json:"residentsWithVerifiedIncome"`
	InProgress        int           `json:"inProgressResidents"`
	NeedsReview       bool          `json:"needsReview"`
	VerifiedDocuments int           `json:"verifiedDocuments"`
	LeaseStartDate    *string       `json:"leaseStartDate"`
	InheritedFrom     string        `json:"inheritedFrom,omitempty"`
	Residents         []ResidentDTO `json:"residents"`
}

// VerificationReportDTO lists per-unit verification statuses.
type VerificationReportDTO struct {
	PropertyID   string                `json:"propertyId"`
	SnapshotID   string                `json:"snapshotId"`
	SnapshotDate string                `json:"snapshotDate"`
	StatusCounts map[string]int        `json:"statusCounts"`
	Units        []UnitVerificationDTO `json:"units"`
}

// =============================================================================
// TARGETS AND SCENARIOS
// =============================================================================

// TargetsDTO is the target allocation for a standard and unit count.
type TargetsDTO struct {
	ComplianceOption string         `json:"complianceOption"`
	TotalUnits       int            `json:"totalUnits"`
	Targets          map[string]int `json:"targets"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

func toPropertyDTO(p rentroll.Property) PropertyDTO {
	return PropertyDTO{
		ID:               p.ID,
		Name:             p.Name,
		State:            p.State,
		ComplianceOption: p.Standard.String(),
		RentAnalysis:     p.RentAnalysis,
		TotalUnits:       p.TotalUnits,
	}
}

func toSnapshotDTO(s rentroll.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:         s.ID,
		Date:       dateString(s),
		UploadedAt: s.UploadedAt.UTC().Format(time.RFC3339),
	}
}

func dateString(s rentroll.Snapshot) string {
	if s.Date.IsZero() {
		return ""
	}
	return s.Date.String()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func dateOrNil(d *generic.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// labelCounts keys c by bucket label, with every bucket present.
func labelCounts(c compliance.Counts) map[string]int {
	out := make(map[string]int, len(compliance.AllBuckets()))
	for _, b := range compliance.AllBuckets() {
		out[string(b)] = c[b]
	}
	return out
}

// NewComplianceReportDTO renders the bucket table for rep.
func NewComplianceReportDTO(ps *rentroll.PropertySnapshot, rep *rentroll.PropertyReport) ComplianceReportDTO {
	c := rep.Compliance
	dto := ComplianceReportDTO{
		PropertyID:       rep.PropertyID,
		SnapshotID:       rep.SnapshotID,
		SnapshotDate:     rep.SnapshotDate.String(),
		ComplianceOption: c.Standard.String(),
		TotalUnits:       ps.TotalUnits(),

		TargetCounts:            labelCounts(c.Targets),
		BucketCounts:            labelCounts(c.Counts),
		BucketCountsWithVacants: labelCounts(c.WithVacants),

		Buckets: make([]BucketCountDTO, 0, len(compliance.AllBuckets())),
		Units:   make([]UnitComplianceDTO, 0, len(rep.Units)),
	}
	for _, b := range compliance.AllBuckets() {
		dto.Buckets = append(dto.Buckets, BucketCountDTO{
			Bucket:      string(b),
			Target:      c.Targets[b],
			Actual:      rep.ActualCounts[b],
			Compliance:  c.Counts[b],
			WithVacants: c.WithVacants[b],
			OverUnder:   c.OverUnder[b],
		})
	}
	for _, u := range rep.Units {
		row := UnitComplianceDTO{
			UnitID:           u.UnitID,
			UnitNumber:       u.UnitNumber,
			LeaseID:          u.LeaseID,
			LeaseKind:        string(u.LeaseKind),
			HouseholdSize:    len(u.Residents),
			HouseholdIncome:  money(u.HouseholdIncome),
			ActualBucket:     string(u.ActualBucket),
			OriginalBucket:   string(u.OriginalBucket),
			ComplianceBucket: string(u.ComplianceBucket),
			LeaseStartDate:   dateOrNil(u.LeaseStartDate),
		}
		dto.Units = append(dto.Units, row)
	}
	return dto
}

// NewVerificationReportDTO renders per-unit verification statuses.
func NewVerificationReportDTO(rep *rentroll.PropertyReport) VerificationReportDTO {
	dto := VerificationReportDTO{
		PropertyID:   rep.PropertyID,
		SnapshotID:   rep.SnapshotID,
		SnapshotDate: rep.SnapshotDate.String(),
		StatusCounts: make(map[string]int, len(rep.StatusCounts)),
		Units:        make([]UnitVerificationDTO, 0, len(rep.Units)),
	}
	for _, st := range verification.AllStatuses() {
		dto.StatusCounts[string(st)] = rep.StatusCounts[st]
	}
	for _, u := range rep.Units {
		v := u.Verification
		row := UnitVerificationDTO{
			UnitID:            u.UnitID,
			UnitNumber:        u.UnitNumber,
			Status:            string(v.Status),
			TotalResidents:    v.TotalResidents,
			VerifiedResidents: v.Verified,
			InProgress:        v.InProgress,
			NeedsReview:       v.NeedsReview,
			VerifiedDocuments: v.VerifiedDocuments,
			LeaseStartDate:    dateOrNil(u.LeaseStartDate),
			InheritedFrom:     u.InheritedFrom,
			Residents:         make([]ResidentDTO, 0, len(u.Residents)),
		}
		for _, r := range u.Residents {
			row.Residents = append(row.Residents, ResidentDTO{
				ID:         r.ID,
				Name:       r.Name,
				Verified:   r.Verified,
				InProgress: r.InProgress,
				Documents:  r.Documents,
				Income:     money(r.Income),
			})
		}
		dto.Units = append(dto.Units, row)
	}
	return dto
}

func toTargetsDTO(std compliance.Standard, units int) TargetsDTO {
	targets := compliance.Targets(std, units)
	dto := TargetsDTO{
		ComplianceOption: std.String(),
		TotalUnits:       units,
		Targets:          make(map[string]int, len(targets)),
	}
	for _, b := range std.TierBuckets() {
		dto.Targets[string(b)] = targets[b]
	}
	dto.Targets[string(compliance.BucketMarket)] = targets[compliance.BucketMarket]
	return dto
}
