/*
engine.go - Per-unit and per-property analysis

PURPOSE:
  The single entry point every caller (API, CLI, reports) uses to turn an
  assembled PropertySnapshot into buckets and verification statuses. One
  engine, no per-screen copies of the rules.

PIPELINE (per unit):
  1. SelectLease            governing lease, or vacant
  2. Inherit                working residents (overlay, never a mutation)
  3. Exclude residents when the lease has not started yet
  4. Classifier.Classify    actual bucket from effective incomes
  5. Classifier.Classify    original bucket from move-in incomes
  6. compliance.Resolve     compliance bucket
  7. verification.Evaluate  status

PER PROPERTY:
  Compliance buckets are tallied and handed to compliance.Reconcile for
  targets and vacancy-adjusted counts.

CONCURRENCY:
  Units are independent. Analyze fans out over a bounded errgroup and
  writes each result into its own slot, so no locking is needed. The first
  precondition failure cancels the rest.

PRECONDITIONS:
  A missing snapshot date or unit ID is an error, never a default.
*/
package rentroll

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/compliance"
	"github.com/warp/compliance-engine/generic"
	"github.com/warp/compliance-engine/verification"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds the fan-out when Engine.Workers is unset.
const DefaultWorkers = 8

// Engine analyzes property snapshots. The zero value is usable.
type Engine struct {
	Observer generic.Observer
	Workers  int
}

// NewEngine creates an engine reporting to obs (nil for none).
func NewEngine(obs generic.Observer, workers int) *Engine {
	return &Engine{Observer: obs, Workers: workers}
}

// =============================================================================
// RESULTS
// =============================================================================

// ResidentSummary is one household member as seen by the analysis.
type ResidentSummary struct {
	ID         string
	Name       string
	Verified   bool
	InProgress bool
	Documents  int
	Income     decimal.Decimal
}

// UnitResult is the full per-unit outcome.
type UnitResult struct {
	UnitID     string
	UnitNumber string

	// Governing lease; empty when vacant.
	LeaseID        string
	LeaseKind      LeaseType
	LeaseStartDate *generic.Date
	Occupying      bool
	InheritedFrom  string

	Verification verification.Summary
	Residents    []ResidentSummary

	HouseholdIncome  decimal.Decimal
	ActualBucket     compliance.Bucket
	OriginalBucket   compliance.Bucket
	ComplianceBucket compliance.Bucket
}

// PropertyReport is the per-property outcome.
type PropertyReport struct {
	PropertyID   string
	SnapshotID   string
	SnapshotDate generic.Date
	Units        []UnitResult

	// Compliance holds targets, compliance-bucket counts and the
	// vacancy-adjusted counts.
	Compliance compliance.Report

	// ActualCounts tallies actual (pre-grandfathering) buckets.
	ActualCounts compliance.Counts

	// StatusCounts tallies verification statuses.
	StatusCounts map[verification.Status]int
}

// =============================================================================
// ANALYSIS
// =============================================================================

// Classifier builds the property's classifier for this snapshot.
func (e *Engine) Classifier(ps *PropertySnapshot) compliance.Classifier {
	return compliance.Classifier{
		Standard:                 ps.Property.Standard,
		IncomeLimits:             ps.IncomeLimits(),
		RentAnalysis:             ps.Property.RentAnalysis,
		RentLimits:               ps.Property.RentLimits,
		UtilityAllowancesEnabled: ps.Property.UtilityAllowancesEnabled,
		UtilityAllowances:        ps.Property.UtilityAllowances,
		Observer:                 e.observer(),
	}
}

// AnalyzeUnit runs the pipeline for one unit of ps.
func (e *Engine) AnalyzeUnit(ps *PropertySnapshot, unit Unit) (UnitResult, error) {
	if err := checkSnapshot(ps); err != nil {
		return UnitResult{}, err
	}
	return e.analyzeUnit(e.Classifier(ps), ps, unit)
}

// Analyze runs every unit of ps and aggregates the property report. Units
// are ordered by unit number, numerically where the numbers are numeric.
func (e *Engine) Analyze(ctx context.Context, ps *PropertySnapshot) (*PropertyReport, error) {
	if err := checkSnapshot(ps); err != nil {
		return nil, err
	}

	classifier := e.Classifier(ps)
	results := make([]UnitResult, len(ps.Units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i := range ps.Units {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.analyzeUnit(classifier, ps, ps.Units[i])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return naturalLess(results[i].UnitNumber, results[j].UnitNumber)
	})

	buckets := make([]compliance.Bucket, len(results))
	actual := make([]compliance.Bucket, len(results))
	statuses := make(map[verification.Status]int)
	for i, r := range results {
		buckets[i] = r.ComplianceBucket
		actual[i] = r.ActualBucket
		statuses[r.Verification.Status]++
	}

	raw, actualCounts := compliance.Tally(buckets), compliance.Tally(actual)
	raw[compliance.BucketVacant] += ps.UnlistedUnits()
	actualCounts[compliance.BucketVacant] += ps.UnlistedUnits()

	return &PropertyReport{
		PropertyID:   ps.Property.ID,
		SnapshotID:   ps.Snapshot.ID,
		SnapshotDate: ps.Snapshot.Date,
		Units:        results,
		Compliance:   compliance.Reconcile(ps.Property.Standard, raw, ps.TotalUnits()),
		ActualCounts: actualCounts,
		StatusCounts: statuses,
	}, nil
}

func (e *Engine) analyzeUnit(c compliance.Classifier, ps *PropertySnapshot, unit Unit) (UnitResult, error) {
	if strings.TrimSpace(unit.ID) == "" {
		return UnitResult{}, &generic.PreconditionError{
			PropertyID: ps.Property.ID,
			UnitNumber: unit.UnitNumber,
			Err:        generic.ErrMissingUnitID,
		}
	}
	obs := e.observer()

	sel := SelectLease(unit.Leases, ps.Snapshot)
	household := Inherit(sel, unit.Leases)

	result := UnitResult{
		UnitID:         unit.ID,
		UnitNumber:     unit.UnitNumber,
		LeaseStartDate: leaseStart(sel.Lease),
		Occupying:      sel.Occupying,
		InheritedFrom:  household.InheritedFrom,
	}
	if sel.Lease != nil {
		result.LeaseID = sel.Lease.ID
		result.LeaseKind = sel.Kind
		if household.InheritedFrom != "" {
			obs.VerificationInherited(unit.ID, sel.Lease.ID, household.InheritedFrom)
		}
	}
	obs.LeaseSelected(unit.ID, result.LeaseID, string(result.LeaseKind))

	residents := household.Residents
	if !sel.Occupying {
		residents = nil
	}

	states := make([]verification.Resident, len(residents))
	current := decimal.Zero
	moveIn := decimal.Zero
	for i, r := range residents {
		states[i] = r.verificationState()
		income := r.EffectiveIncome()
		current = current.Add(income)
		moveIn = moveIn.Add(r.MoveInIncome())
		result.Residents = append(result.Residents, ResidentSummary{
			ID:         r.ID,
			Name:       r.Name,
			Verified:   states[i].Verified(),
			InProgress: states[i].InProgress(),
			Documents:  len(r.Documents),
			Income:     income,
		})
	}

	result.Verification = verification.Evaluate(states)
	obs.StatusDerived(unit.ID, string(result.Verification.Status),
		result.Verification.Verified, result.Verification.TotalResidents)

	var rent *decimal.Decimal
	if sel.Lease != nil {
		rent = sel.Lease.Rent
	}
	facts := compliance.UnitFacts{
		UnitID:          unit.ID,
		HouseholdIncome: current,
		HouseholdSize:   len(residents),
		Rent:            rent,
		Bedrooms:        unit.Bedrooms,
	}
	result.HouseholdIncome = current
	result.ActualBucket = c.Classify(facts)

	// Bypasses were already reported for the actual bucket.
	quiet := c
	quiet.Observer = generic.NopObserver{}
	facts.HouseholdIncome = moveIn
	result.OriginalBucket = quiet.Classify(facts)
	result.ComplianceBucket = compliance.Resolve(result.ActualBucket, result.OriginalBucket)

	return result, nil
}

func checkSnapshot(ps *PropertySnapshot) error {
	if ps.Snapshot.Date.IsZero() {
		return &generic.PreconditionError{
			PropertyID: ps.Property.ID,
			Err:        generic.ErrMissingSnapshotDate,
		}
	}
	return nil
}

func (e *Engine) observer() generic.Observer {
	return generic.ObserverOrNop(e.Observer)
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return DefaultWorkers
}

// =============================================================================
// UNIT NUMBER ORDERING
// =============================================================================

// naturalLess orders "2" before "10" and "A-9" before "A-10".
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		ca, cb := rune(a[0]), rune(b[0])
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			na, ra := leadingDigits(a)
			nb, rb := leadingDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = ra, rb
			continue
		}
		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			return la < lb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}
