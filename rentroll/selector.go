package rentroll

import (
	"github.com/warp/compliance-engine/generic"
)

// =============================================================================
// LEASE SELECTION - Which lease governs a unit at a snapshot
// =============================================================================

// Selection is the outcome of SelectLease.
type Selection struct {
	// Lease is nil when the unit is vacant at the snapshot.
	Lease *Lease

	// Kind is current for a tenancy-linked lease, future otherwise.
	Kind LeaseType

	// Occupying is false when the governing lease starts after the snapshot
	// date. Its residents are then excluded from counts.
	Occupying bool
}

// Vacant reports whether no lease governs the unit.
func (s Selection) Vacant() bool { return s.Lease == nil }

// SelectLease chooses the governing lease among all of a unit's leases.
//
//  1. Current leases: linked to this snapshot by a tenancy and starting on
//     or before its date (an unknown start counts as started). The most
//     recently created wins.
//  2. Otherwise future leases: no tenancy at all and a known start date.
//     The latest start wins.
//  3. Otherwise the unit is vacant.
//
// Ties break on lease ID, highest first, so the choice is deterministic.
// The returned Lease points into the input slice and must not be modified.
func SelectLease(leases []Lease, snapshot Snapshot) Selection {
	var current *Lease
	for i := range leases {
		l := &leases[i]
		if !l.LinkedTo(snapshot.ID) {
			continue
		}
		if l.Term.HasStart() && !l.Term.StartsOnOrBefore(snapshot.Date) {
			continue
		}
		if current == nil || createdLater(l, current) {
			current = l
		}
	}
	if current != nil {
		return Selection{
			Lease:     current,
			Kind:      LeaseCurrent,
			Occupying: true,
		}
	}

	var future *Lease
	for i := range leases {
		l := &leases[i]
		if len(l.Tenancies) > 0 || !l.Term.HasStart() {
			continue
		}
		if future == nil || startsLater(l, future) {
			future = l
		}
	}
	if future != nil {
		return Selection{
			Lease:     future,
			Kind:      LeaseFuture,
			Occupying: !future.Term.StartsAfter(snapshot.Date),
		}
	}

	return Selection{}
}

func createdLater(a, b *Lease) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func startsLater(a, b *Lease) bool {
	as, bs := *a.Term.Start, *b.Term.Start
	if !as.Equal(bs) {
		return as.After(bs)
	}
	return a.ID > b.ID
}

// leaseStart returns the lease's start date, nil when unknown.
func leaseStart(l *Lease) *generic.Date {
	if l == nil || !l.Term.HasStart() {
		return nil
	}
	d := *l.Term.Start
	return &d
}
