package generic

// =============================================================================
// TERM - Lease term with optional boundaries
// =============================================================================

// Term is the [Start, End] span of a lease. Either side may be unknown: rent
// rolls routinely omit end dates for month-to-month tenancies, and future
// leases sometimes arrive without a start date.
type Term struct {
	Start *Date `json:"start"`
	End   *Date `json:"end"`
}

// NewTerm builds a term with both boundaries set.
func NewTerm(start, end Date) Term {
	return Term{Start: &start, End: &end}
}

// HasStart reports whether the start date is known.
func (t Term) HasStart() bool { return t.Start != nil && !t.Start.IsZero() }

// StartsOnOrBefore is false when the start is unknown.
func (t Term) StartsOnOrBefore(d Date) bool {
	return t.HasStart() && t.Start.BeforeOrEqual(d)
}

// StartsAfter is false when the start is unknown.
func (t Term) StartsAfter(d Date) bool {
	return t.HasStart() && t.Start.After(d)
}

// Contains returns true if d is within [Start, End]. An open end is unbounded.
func (t Term) Contains(d Date) bool {
	if !t.StartsOnOrBefore(d) {
		return false
	}
	return t.End == nil || t.End.AfterOrEqual(d)
}

// SameAs compares both boundaries exactly; unknown equals unknown.
func (t Term) SameAs(other Term) bool {
	return SameDate(t.Start, other.Start) && SameDate(t.End, other.End)
}

// String returns a string representation of the term.
func (t Term) String() string {
	start, end := "?", "?"
	if t.Start != nil {
		start = t.Start.String()
	}
	if t.End != nil {
		end = t.End.String()
	}
	return "[" + start + ", " + end + "]"
}
