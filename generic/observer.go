package generic

// =============================================================================
// OBSERVER - Observability boundary for the engine
// =============================================================================

// Observer receives notable engine decisions. The engine never logs on its
// own; callers that want diagnostics inject an Observer (see logging.Observer).
// Implementations must be safe for concurrent use: units are analyzed in
// parallel.
type Observer interface {
	// LeaseSelected reports which lease governs a unit, or "" when vacant.
	LeaseSelected(unitID, leaseID string, kind string)

	// RentAnalysisBypassed reports that rent analysis was enabled but could
	// not run, so the income-only bucket stands.
	RentAnalysisBypassed(unitID string, reason BypassReason)

	// VerificationInherited reports that verified residents were copied from
	// a sibling lease onto the governing lease's working view.
	VerificationInherited(unitID, toLeaseID, fromLeaseID string)

	// StatusDerived reports the verification status computed for a unit.
	StatusDerived(unitID, status string, verified, total int)
}

// BypassReason says why rent analysis fell back to income-only.
type BypassReason string

const (
	BypassNoRent       BypassReason = "rent_missing"
	BypassNoBedrooms   BypassReason = "bedroom_count_missing"
	BypassNoRentLimits BypassReason = "rent_limits_missing"
)

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) LeaseSelected(string, string, string) {}
func (NopObserver) RentAnalysisBypassed(string, BypassReason) {}
func (NopObserver) VerificationInherited(string, string, string) {}
func (NopObserver) StatusDerived(string, string, int, int) {}

// ObserverOrNop returns o, or a NopObserver when o is nil.
func ObserverOrNop(o Observer) Observer {
	if o == nil {
		return NopObserver{}
	}
	return o
}
