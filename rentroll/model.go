/*
Package rentroll models rent roll snapshots and runs the per-unit analysis.

PURPOSE:
  A property's rent roll is uploaded repeatedly. Each upload is a dated
  snapshot that links the leases occupying units at that moment (through
  tenancies) and often re-creates lease records that already existed.
  This package holds that record arena and derives, per unit and per
  snapshot, the governing lease, the working household, its AMI buckets
  and its verification status.

KEY CONCEPTS:
  - PropertySnapshot: The assembled, read-only input (property, snapshot,
    units with their leases, residents and documents)
  - Tenancy: Links a lease to a snapshot. A linked lease is "current"
  - Future lease: A lease with no tenancy (signed, not yet on a rent roll)
  - Household: The derived working view of a unit; never written back

DATA FLOW:
  SelectLease -> Inherit -> Classifier.Classify -> compliance.Resolve
                         \-> verification.Evaluate

RECORD OWNERSHIP:
  The engine never mutates Leases or Residents. Inheritance copies the
  sibling's residents into a fresh Household.

SEE ALSO:
  - selector.go: Governing lease choice
  - inheritance.go: Verified-income inheritance
  - engine.go: Orchestration
  - store.go: Persistence interface
*/
package rentroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/verification"
)

// =============================================================================
// PROPERTY AND UNITS
// =============================================================================

// Property is a regulated property and its compliance configuration.
type Property struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`

	Standard compliance.Standard `json:"standard"`

	RentAnalysis             bool                         `json:"rentAnalysis"`
	UtilityAllowancesEnabled bool                         `json:"utilityAllowancesEnabled"`
	UtilityAllowances        compliance.UtilityAllowances `json:"utilityAllowances,omitempty"`

	// RentLimits by tier and bedroom count.
	RentLimits compliance.RentLimits `json:"rentLimits,omitempty"`

	// IncomeLimits used when a snapshot carries none of its own.
	IncomeLimits compliance.IncomeLimits `json:"incomeLimits,omitempty"`

	// TotalUnits drives target allocation. Zero means "count the units".
	TotalUnits int `json:"totalUnits"`
}

// Unit is a physical unit and every lease ever recorded against it.
type Unit struct {
	ID            string  `json:"id"`
	PropertyID    string  `json:"propertyId"`
	UnitNumber    string  `json:"unitNumber"`
	Bedrooms      *int    `json:"bedrooms,omitempty"`
	SquareFootage *int    `json:"squareFootage,omitempty"`
	Leases        []Lease `json:"leases,omitempty"`
}

// Snapshot is one dated rent roll upload.
type Snapshot struct {
	ID         string       `json:"id"`
	PropertyID string       `json:"propertyId"`
	Date       generic.Date `json:"date"`
	UploadedAt time.Time    `json:"uploadedAt"`

	// IncomeLimits in effect on Date. Optional.
	IncomeLimits compliance.IncomeLimits `json:"incomeLimits,omitempty"`
}

// =============================================================================
// LEASES AND RESIDENTS
// =============================================================================

// LeaseType is the kind recorded on a lease by the upload that created it.
// Empty means "derive from tenancy links".
type LeaseType string

const (
	LeaseCurrent LeaseType = "CURRENT"
	LeaseFuture  LeaseType = "FUTURE"
)

type Lease struct {
	ID        string           `json:"id"`
	UnitID    string           `json:"unitId"`
	Term      generic.Term     `json:"term"`
	Rent      *decimal.Decimal `json:"rent,omitempty"`
	Type      LeaseType        `json:"type,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`

	Tenancies []Tenancy  `json:"tenancies,omitempty"`
	Residents []Resident `json:"residents,omitempty"`
}

// LinkedTo reports whether a tenancy ties the lease to the snapshot.
func (l Lease) LinkedTo(snapshotID string) bool {
	for _, t := range l.Tenancies {
		if t.SnapshotID == snapshotID {
			return true
		}
	}
	return false
}

// Kind is the explicit Type when recorded, otherwise current when any
// tenancy links the lease and future when none does.
func (l Lease) Kind() LeaseType {
	if l.Type != "" {
		return l.Type
	}
	if len(l.Tenancies) > 0 {
		return LeaseCurrent
	}
	return LeaseFuture
}

// HasVerifiedResident is true when some resident has finalized income with
// a computed amount. No-income residents do not count here.
func (l Lease) HasVerifiedResident() bool {
	for _, r := range l.Residents {
		if r.HasFinalizedIncome() {
			return true
		}
	}
	return false
}

// Tenancy joins a lease to a snapshot.
type Tenancy struct {
	ID         string `json:"id"`
	LeaseID    string `json:"leaseId"`
	SnapshotID string `json:"snapshotId"`
}

// Resident is a household member on a lease.
type Resident struct {
	ID      string `json:"id"`
	LeaseID string `json:"leaseId"`
	Name    string `json:"name"`

	// AnnualizedIncome as reported on the rent roll.
	AnnualizedIncome *decimal.Decimal `json:"annualizedIncome,omitempty"`

	// VerifiedIncome computed from income documents.
	VerifiedIncome *decimal.Decimal `json:"verifiedIncome,omitempty"`

	// OriginalIncome at move-in, for grandfathering.
	OriginalIncome *decimal.Decimal `json:"originalIncome,omitempty"`

	IncomeFinalized bool       `json:"incomeFinalized"`
	HasNoIncome     bool       `json:"hasNoIncome"`
	FinalizedAt     *time.Time `json:"finalizedAt,omitempty"`

	Documents []IncomeDocument `json:"documents,omitempty"`
}

// HasFinalizedIncome is "finalized AND computed income present".
func (r Resident) HasFinalizedIncome() bool {
	return r.IncomeFinalized && r.VerifiedIncome != nil
}

// EffectiveIncome is the amount counted toward household income: zero for
// no-income residents, the verified amount once finalized, the rent roll
// amount otherwise.
func (r Resident) EffectiveIncome() decimal.Decimal {
	if r.HasNoIncome {
		return decimal.Zero
	}
	if r.HasFinalizedIncome() {
		return *r.VerifiedIncome
	}
	return generic.ValueOr(r.AnnualizedIncome, decimal.Zero)
}

// MoveInIncome is OriginalIncome when known, EffectiveIncome otherwise.
func (r Resident) MoveInIncome() decimal.Decimal {
	if r.HasNoIncome {
		return decimal.Zero
	}
	return generic.ValueOr(r.OriginalIncome, r.EffectiveIncome())
}

// verificationState converts the resident for the status engine.
func (r Resident) verificationState() verification.Resident {
	docs := make([]verification.DocumentStatus, len(r.Documents))
	for i, d := range r.Documents {
		docs[i] = d.Status
	}
	return verification.Resident{
		ID:                r.ID,
		Name:              r.Name,
		IncomeFinalized:   r.IncomeFinalized,
		HasComputedIncome: r.VerifiedIncome != nil,
		HasNoIncome:       r.HasNoIncome,
		Documents:         docs,
	}
}

// clone copies the resident including its document slice.
func (r Resident) clone() Resident {
	out := r
	out.Documents = append([]IncomeDocument(nil), r.Documents...)
	return out
}

// normalizedName lowercases and collapses whitespace.
func normalizedName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// IncomeDocument is an uploaded income proof (pay stub, award letter...).
type IncomeDocument struct {
	ID             string                      `json:"id"`
	ResidentID     string                      `json:"residentId"`
	Type           string                      `json:"type"`
	Status         verification.DocumentStatus `json:"status"`
	UploadedAt     time.Time                   `json:"uploadedAt"`
	ComputedIncome *decimal.Decimal            `json:"computedIncome,omitempty"`
}

// =============================================================================
// ASSEMBLED INPUT
// =============================================================================

// PropertySnapshot is everything the engine needs for one property at one
// snapshot. It is treated as read-only.
type PropertySnapshot struct {
	Property Property `json:"property"`
	Snapshot Snapshot `json:"snapshot"`
	Units    []Unit   `json:"units"`
}

// IncomeLimits returns the snapshot's table, or the property's fallback.
func (ps *PropertySnapshot) IncomeLimits() compliance.IncomeLimits {
	if !ps.Snapshot.IncomeLimits.IsEmpty() {
		return ps.Snapshot.IncomeLimits
	}
	return ps.Property.IncomeLimits
}

// TotalUnits is the configured count, or the number of units present when
// that is larger. A configured count below the listed units is stale.
func (ps *PropertySnapshot) TotalUnits() int {
	return max(ps.Property.TotalUnits, len(ps.Units))
}

// UnlistedUnits is how many configured units the rent roll leaves out.
// Rent rolls routinely omit vacant units, so these count as Vacant.
func (ps *PropertySnapshot) UnlistedUnits() int {
	return ps.TotalUnits() - len(ps.Units)
}
