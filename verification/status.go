/*
Package verification derives a unit's income-verification status.

PURPOSE:
  Compliance staff need one answer per unit: is every household member's
  income verified, is work under way, or is something blocked? This package
  turns resident and document state into that answer. It is a pure
  function of its input and is shared by every caller (API, CLI, reports).

PER RESIDENT:
  verified    = (income finalized AND computed income present) OR no-income
  in progress = has documents AND not finalized AND not no-income

STATUS (strict priority, first match wins):
  1. No residents                          -> Vacant
  2. Any document needs admin review       -> Waiting for Admin Review
  3. Nobody verified and nobody in progress -> Out of Date Income Documents
  4. Everyone verified                     -> Verified
  5. Otherwise                             -> In Progress - Finalize to Process

SEE ALSO:
  - rentroll/engine.go: Builds the resident list from the governing lease
*/
package verification

// =============================================================================
// STATUS LABELS
// =============================================================================

// Status is the unit-level verification status. The string values are part
// of the external interface and must not change.
type Status string

const (
	StatusVerified    Status = "Verified"
	StatusInProgress  Status = "In Progress - Finalize to Process"
	StatusOutOfDate   Status = "Out of Date Income Documents"
	StatusNeedsReview Status = "Waiting for Admin Review"
	StatusVacant      Status = "Vacant"
)

// AllStatuses returns every status in priority order.
func AllStatuses() []Status {
	return []Status{StatusVacant, StatusNeedsReview, StatusOutOfDate, StatusVerified, StatusInProgress}
}

// DocumentStatus is the processing state of an uploaded income document.
type DocumentStatus string

const (
	DocumentProcessing  DocumentStatus = "PROCESSING"
	DocumentCompleted   DocumentStatus = "COMPLETED"
	DocumentNeedsReview DocumentStatus = "NEEDS_REVIEW"
	DocumentUncompleted DocumentStatus = "UNCOMPLETED"
)

func (d DocumentStatus) Valid() bool {
	switch d {
	case DocumentProcessing, DocumentCompleted, DocumentNeedsReview, DocumentUncompleted:
		return true
	}
	return false
}

// =============================================================================
// INPUT
// =============================================================================

// Resident is the verification-relevant state of one household member.
type Resident struct {
	ID                string
	Name              string
	IncomeFinalized   bool
	HasComputedIncome bool
	HasNoIncome       bool
	Documents         []DocumentStatus
}

// Verified reports whether the resident's income counts as verified.
func (r Resident) Verified() bool {
	return (r.IncomeFinalized && r.HasComputedIncome) || r.HasNoIncome
}

// InProgress reports whether documents exist but have not been finalized.
func (r Resident) InProgress() bool {
	return len(r.Documents) > 0 && !r.IncomeFinalized && !r.HasNoIncome
}

// NeedsReview reports whether any of the resident's documents awaits an admin.
func (r Resident) NeedsReview() bool {
	for _, d := range r.Documents {
		if d == DocumentNeedsReview {
			return true
		}
	}
	return false
}

// =============================================================================
// EVALUATION
// =============================================================================

// Summary is the aggregated verification state of a unit.
type Summary struct {
	Status            Status
	TotalResidents    int
	Verified          int
	InProgress        int
	NeedsReview       bool
	VerifiedDocuments int
}

// Evaluate aggregates residents into a Summary.
func Evaluate(residents []Resident) Summary {
	s := Summary{TotalResidents: len(residents)}
	for _, r := range residents {
		if r.Verified() {
			s.Verified++
		}
		if r.InProgress() {
			s.InProgress++
		}
		if r.NeedsReview() {
			s.NeedsReview = true
		}
		for _, d := range r.Documents {
			if d == DocumentCompleted {
				s.VerifiedDocuments++
			}
		}
	}
	s.Status = deriveStatus(s)
	return s
}

func deriveStatus(s Summary) Status {
	switch {
	case s.TotalResidents == 0:
		return StatusVacant
	case s.NeedsReview:
		return StatusNeedsReview
	case s.Verified == 0 && s.InProgress == 0:
		return StatusOutOfDate
	case s.Verified == s.TotalResidents:
		return StatusVerified
	default:
		return StatusInProgress
	}
}
