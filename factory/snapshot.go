/*
Package factory converts JSON rent roll documents into engine input.

PURPOSE:
  Upstream ingestion (spreadsheet parsing, column mapping) produces one JSON
  document per upload. The factory validates it and turns it into a
  rentroll.PropertySnapshot. Tables and amounts arrive in whatever shape
  the spreadsheet had, so the factory is tolerant about formatting and
  strict about structure.

JSON SCHEMA:
  {
    "property": {
      "id": "maple-court",
      "name": "Maple Court",
      "state": "CA",
      "compliance_option": "20% at 50% AMI, 55% at 80% AMI",
      "custom_percent": null,
      "rent_analysis": true,
      "utility_allowances_enabled": true,
      "utility_allowances": {"1": 95, "2": "$120.00"},
      "rent_limits":   {"50% AMI": {"1": 1050, "2": 1260}, "80": {"2": "1,680"}},
      "income_limits": {"50": {"1": 32500, "2": 37150}, "80": {"1": 52000}},
      "total_units": 24
    },
    "snapshot": {"id": "2025-06", "date": "2025-06-30"},
    "units": [{
      "id": "unit-101", "unit_number": "101", "bedrooms": 2,
      "leases": [{
        "id": "lease-1", "start_date": "09/01/2024", "end_date": "2025-08-31",
        "rent": "$1,150.00", "type": "current", "on_rent_roll": true,
        "residents": [{
          "name": "Ana Lopez", "annualized_income": "31,200",
          "verified_income": 30480, "income_finalized": true,
          "documents": [{"type": "paystub", "status": "COMPLETED"}]
        }]
      }]
    }]
  }

LENIENCY:
  - Amounts accept numbers or formatted strings. Unparseable amounts become
    "not reported" rather than failing the import
  - Tier keys accept "50", "50%" and "50% AMI"
  - Missing record IDs are generated (unit IDs excepted: a unit without an
    ID is reported by the engine as a precondition error)
  - A lease without created_at is stamped from its position in the unit's
    lease list, later entries created later, so lease selection never
    falls back to comparing generated IDs

STRICTNESS:
  - Required fields are enforced with validator tags
  - Unknown compliance options, tiers, lease types, document statuses and
    malformed dates are rejected with a generic.ValidationError

SEE ALSO:
  - rentroll/model.go: Target types
  - api/scenarios.go: Demo documents
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/rentroll"
	"github.com/warp/compliance-engine/verification"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Amount is a raw JSON number or string, parsed leniently.
type Amount = json.RawMessage

// TierTable is tier -> household size or bedroom count -> amount.
type TierTable map[string]map[string]Amount

// SnapshotJSON is the import document.
type SnapshotJSON struct {
	Property PropertyJSON     `json:"property"`
	Snapshot SnapshotMetaJSON `json:"snapshot"`
	Units    []UnitJSON       `json:"units" validate:"dive"`
}

type PropertyJSON struct {
	ID                       string            `json:"id"`
	Name                     string            `json:"name" validate:"required"`
	State                    string            `json:"state,omitempty"`
	ComplianceOption         string            `json:"compliance_option" validate:"required"`
	CustomPercent            Amount            `json:"custom_percent,omitempty"`
	RentAnalysis             *bool             `json:"rent_analysis,omitempty"`
	UtilityAllowancesEnabled bool              `json:"utility_allowances_enabled,omitempty"`
	UtilityAllowances        map[string]Amount `json:"utility_allowances,omitempty"`
	RentLimits               TierTable         `json:"rent_limits,omitempty"`
	IncomeLimits             TierTable         `json:"income_limits,omitempty"`
	TotalUnits               int               `json:"total_units,omitempty" validate:"gte=0"`
}

type SnapshotMetaJSON struct {
	ID           string    `json:"id"`
	Date         string    `json:"date" validate:"required"`
	UploadedAt   string    `json:"uploaded_at,omitempty"`
	IncomeLimits TierTable `json:"income_limits,omitempty"`
}

type UnitJSON struct {
	ID            string      `json:"id"`
	UnitNumber    string      `json:"unit_number" validate:"required"`
	Bedrooms      *int        `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	SquareFootage *int        `json:"square_footage,omitempty" validate:"omitempty,gte=0"`
	Leases        []LeaseJSON `json:"leases,omitempty" validate:"dive"`
}

type LeaseJSON struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Rent      Amount `json:"rent,omitempty"`
	Type      string `json:"type,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`

	// OnRentRoll links the lease to this document's snapshot.
	OnRentRoll bool `json:"on_rent_roll,omitempty"`

	// SnapshotIDs links the lease to other snapshots.
	SnapshotIDs []string `json:"snapshot_ids,omitempty"`

	Residents []ResidentJSON `json:"residents,omitempty" validate:"dive"`
}

type ResidentJSON struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	AnnualizedIncome Amount         `json:"annualized_income,omitempty"`
	VerifiedIncome   Amount         `json:"verified_income,omitempty"`
	OriginalIncome   Amount         `json:"original_income,omitempty"`
	IncomeFinalized  bool           `json:"income_finalized,omitempty"`
	HasNoIncome      bool           `json:"has_no_income,omitempty"`
	FinalizedAt      string         `json:"finalized_at,omitempty"`
	Documents        []DocumentJSON `json:"documents,omitempty" validate:"dive"`
}

type DocumentJSON struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Status         string `json:"status" validate:"required"`
	UploadedAt     string `json:"uploaded_at,omitempty"`
	ComputedIncome Amount `json:"computed_income,omitempty"`
}

// =============================================================================
// SNAPSHOT FACTORY
// =============================================================================

// tenancyNamespace derives stable tenancy IDs so re-importing a document
// does not duplicate links.
var tenancyNamespace = uuid.MustParse("7f0c8a52-3a8e-4f7e-9d1b-2f6a1d9e4c11")

// SnapshotFactory converts JSON documents to PropertySnapshots.
type SnapshotFactory struct {
	// DefaultRentAnalysis applies when a document omits rent_analysis.
	DefaultRentAnalysis bool

	validate *validator.Validate
	now      func() time.Time
}

// NewSnapshotFactory creates a new snapshot factory.
func NewSnapshotFactory() *SnapshotFactory {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &SnapshotFactory{
		validate: v,
		now:      time.Now,
	}
}

// ParseSnapshot decodes and converts a JSON document.
func (f *SnapshotFactory) ParseSnapshot(data []byte) (*rentroll.PropertySnapshot, error) {
	var doc SnapshotJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, &generic.ValidationError{Cause: fmt.Errorf("failed to parse snapshot JSON: %w", err)}
	}
	return f.FromJSON(doc)
}

// FromJSON validates and converts a decoded document.
func (f *SnapshotFactory) FromJSON(doc SnapshotJSON) (*rentroll.PropertySnapshot, error) {
	if err := f.validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				// Drop the root type name: "SnapshotJSON.property.name" -> "property.name"
				ns := fe.Namespace()
				if dot := strings.IndexByte(ns, '.'); dot >= 0 {
					ns = ns[dot+1:]
				}
				fields[i] = ns
			}
			return nil, &generic.ValidationError{Fields: fields, Cause: err}
		}
		return nil, &generic.ValidationError{Cause: err}
	}

	c := &converter{now: f.now(), rentAnalysis: f.DefaultRentAnalysis}
	ps := c.convert(doc)
	if len(c.invalid) > 0 {
		return nil, &generic.ValidationError{Fields: c.invalid}
	}
	return ps, nil
}

// =============================================================================
// CONVERSION
// =============================================================================

// converter accumulates invalid fields instead of failing on the first one.
type converter struct {
	now          time.Time
	rentAnalysis bool
	invalid      []string
}

func (c *converter) fail(field string) {
	c.invalid = append(c.invalid, field)
}

func (c *converter) convert(doc SnapshotJSON) *rentroll.PropertySnapshot {
	prop := c.property(doc.Property)

	snap := rentroll.Snapshot{
		ID:           orNewID(doc.Snapshot.ID),
		PropertyID:   prop.ID,
		UploadedAt:   c.timestamp("snapshot.uploaded_at", doc.Snapshot.UploadedAt),
		IncomeLimits: compliance.IncomeLimits(c.tierTable("snapshot.income_limits", doc.Snapshot.IncomeLimits)),
	}
	if d, err := generic.ParseDate(doc.Snapshot.Date); err == nil {
		snap.Date = d
	} else {
		c.fail("snapshot.date")
	}

	ps := &rentroll.PropertySnapshot{Property: prop, Snapshot: snap}
	for i, uj := range doc.Units {
		ps.Units = append(ps.Units, c.unit(fmt.Sprintf("units[%d]", i), prop.ID, snap.ID, uj))
	}
	return ps
}

func (c *converter) property(pj PropertyJSON) rentroll.Property {
	std, err := compliance.ParseStandard(pj.ComplianceOption, parseAmount(pj.CustomPercent))
	if err != nil {
		c.fail("property.compliance_option")
	}

	rentAnalysis := c.rentAnalysis
	if pj.RentAnalysis != nil {
		rentAnalysis = *pj.RentAnalysis
	}

	allowances := compliance.UtilityAllowances{}
	for key, raw := range pj.UtilityAllowances {
		bedrooms, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			c.fail("property.utility_allowances." + key)
			continue
		}
		if amt := parseAmount(raw); amt != nil {
			allowances[bedrooms] = *amt
		}
	}

	return rentroll.Property{
		ID:                       orNewID(pj.ID),
		Name:                     strings.TrimSpace(pj.Name),
		State:                    strings.ToUpper(strings.TrimSpace(pj.State)),
		Standard:                 std,
		RentAnalysis:             rentAnalysis,
		UtilityAllowancesEnabled: pj.UtilityAllowancesEnabled,
		UtilityAllowances:        allowances,
		RentLimits:               compliance.RentLimits(c.tierTable("property.rent_limits", pj.RentLimits)),
		IncomeLimits:             compliance.IncomeLimits(c.tierTable("property.income_limits", pj.IncomeLimits)),
		TotalUnits:               pj.TotalUnits,
	}
}

// tierTable parses a tier-keyed table. Unparseable amounts are dropped;
// unknown tiers and non-integer keys are invalid.
func (c *converter) tierTable(field string, t TierTable) map[compliance.Tier]map[int]decimal.Decimal {
	out := make(map[compliance.Tier]map[int]decimal.Decimal)
	for tierKey, byKey := range t {
		tier, ok := compliance.ParseTier(tierKey)
		if !ok {
			c.fail(field + "." + tierKey)
			continue
		}
		for key, raw := range byKey {
			n, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || n < 0 {
				c.fail(field + "." + tierKey + "." + key)
				continue
			}
			amt := parseAmount(raw)
			if amt == nil {
				continue
			}
			if out[tier] == nil {
				out[tier] = make(map[int]decimal.Decimal)
			}
			out[tier][n] = *amt
		}
	}
	return out
}

func (c *converter) unit(field, propertyID, snapshotID string, uj UnitJSON) rentroll.Unit {
	u := rentroll.Unit{
		ID:            strings.TrimSpace(uj.ID),
		PropertyID:    propertyID,
		UnitNumber:    strings.TrimSpace(uj.UnitNumber),
		Bedrooms:      uj.Bedrooms,
		SquareFootage: uj.SquareFootage,
	}
	for i, lj := range uj.Leases {
		u.Leases = append(u.Leases, c.lease(fmt.Sprintf("%s.leases[%d]", field, i), i, u.ID, snapshotID, lj))
	}
	return u
}

func (c *converter) lease(field string, index int, unitID, snapshotID string, lj LeaseJSON) rentroll.Lease {
	l := rentroll.Lease{
		ID:     orNewID(lj.ID),
		UnitID: unitID,
		Term:   generic.Term{Start: c.date(field+".start_date", lj.StartDate), End: c.date(field+".end_date", lj.EndDate)},
		Rent:   parseAmount(lj.Rent),
	}
	if strings.TrimSpace(lj.CreatedAt) == "" {
		l.CreatedAt = c.now.Add(time.Duration(index) * time.Millisecond)
	} else {
		l.CreatedAt = c.timestamp(field+".created_at", lj.CreatedAt)
	}

	switch strings.ToLower(strings.TrimSpace(lj.Type)) {
	case "":
	case "current":
		l.Type = rentroll.LeaseCurrent
	case "future":
		l.Type = rentroll.LeaseFuture
	default:
		c.fail(field + ".type")
	}

	links := lj.SnapshotIDs
	if lj.OnRentRoll {
		links = append([]string{snapshotID}, links...)
	}
	seen := make(map[string]bool)
	for _, sid := range links {
		sid = strings.TrimSpace(sid)
		if sid == "" || seen[sid] {
			continue
		}
		seen[sid] = true
		l.Tenancies = append(l.Tenancies, rentroll.Tenancy{
			ID:         uuid.NewSHA1(tenancyNamespace, []byte(l.ID+"|"+sid)).String(),
			LeaseID:    l.ID,
			SnapshotID: sid,
		})
	}

	for i, rj := range lj.Residents {
		l.Residents = append(l.Residents, c.resident(fmt.Sprintf("%s.residents[%d]", field, i), l.ID, rj))
	}
	return l
}

func (c *converter) resident(field, leaseID string, rj ResidentJSON) rentroll.Resident {
	r := rentroll.Resident{
		ID:               orNewID(rj.ID),
		LeaseID:          leaseID,
		Name:             strings.TrimSpace(rj.Name),
		AnnualizedIncome: parseAmount(rj.AnnualizedIncome),
		VerifiedIncome:   parseAmount(rj.VerifiedIncome),
		OriginalIncome:   parseAmount(rj.OriginalIncome),
		IncomeFinalized:  rj.IncomeFinalized,
		HasNoIncome:      rj.HasNoIncome,
	}
	if strings.TrimSpace(rj.FinalizedAt) != "" {
		ts := c.timestamp(field+".finalized_at", rj.FinalizedAt)
		r.FinalizedAt = &ts
	}

	for i, dj := range rj.Documents {
		status, ok := parseDocumentStatus(dj.Status)
		if !ok {
			c.fail(fmt.Sprintf("%s.documents[%d].status", field, i))
		}
		r.Documents = append(r.Documents, rentroll.IncomeDocument{
			ID:             orNewID(dj.ID),
			ResidentID:     r.ID,
			Type:           strings.TrimSpace(dj.Type),
			Status:         status,
			UploadedAt:     c.timestamp(fmt.Sprintf("%s.documents[%d].uploaded_at", field, i), dj.UploadedAt),
			ComputedIncome: parseAmount(dj.ComputedIncome),
		})
	}
	return r
}

// date parses an optional date; blank is nil, malformed is invalid.
func (c *converter) date(field, s string) *generic.Date {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		c.fail(field)
		return nil
	}
	return &d
}

// timestamp parses an optional RFC3339 time or date; blank is the import time.
func (c *converter) timestamp(field, s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return c.now
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if d, err := generic.ParseDate(s); err == nil {
		return d.Time
	}
	c.fail(field)
	return c.now
}

// =============================================================================
// VALUE PARSING
// =============================================================================

// parseAmount accepts a JSON number or a formatted string. Anything else,
// including null, is "not reported".
func parseAmount(raw Amount) *decimal.Decimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return generic.ParseMoneyPtr(s)
	}
	return generic.ParseMoneyPtr(string(raw))
}

func parseDocumentStatus(s string) (verification.DocumentStatus, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	st := verification.DocumentStatus(norm)
	return st, st.Valid()
}

func orNewID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
