/*
inheritance.go - Carrying verified income across re-uploaded leases

PURPOSE:
  Every rent roll upload may create a fresh lease record for a household
  that is already on file. The new record has none of the verification
  work done against the old one. When the governing lease has no verified
  resident, we look for a sibling lease on the same unit that is clearly
  the same household and borrow its residents.

MATCH RULE (all must hold):
  - The sibling has at least one resident with finalized, computed income
  - Same kind (current vs future)
  - Same start date, end date and rent (unknown equals unknown)
  - Same set of resident names after lowercasing and collapsing whitespace

  Several matches: the most recently created sibling wins.

KNOWN FRAGILITY:
  There is no stable household identity in rent roll data, so the match is
  an exact-value heuristic. A corrected typo in a name, a rent change of a
  cent, or a re-keyed end date breaks the link and the unit reverts to
  unverified. Any change here needs sign-off from compliance staff.

OVERLAY:
  The result is a new resident slice. Neither lease is modified.
*/
package rentroll

import (
	"sort"

	"github.com/warp/compliance-engine/generic"
)

// Household is the derived working view of a unit at a snapshot.
type Household struct {
	Selection

	// Residents after inheritance. Empty when vacant or not occupying.
	Residents []Resident

	// InheritedFrom is the sibling lease ID, "" when nothing was inherited.
	InheritedFrom string
}

// Inherit builds the working household for a selection. leases must be all
// of the unit's leases, including the governing one.
func Inherit(sel Selection, leases []Lease) Household {
	h := Household{Selection: sel}
	if sel.Lease == nil {
		return h
	}

	gov := sel.Lease
	if gov.HasVerifiedResident() {
		h.Residents = cloneResidents(gov.Residents)
		return h
	}

	if src := findSibling(gov, leases); src != nil {
		h.Residents = cloneResidents(src.Residents)
		h.InheritedFrom = src.ID
		return h
	}

	h.Residents = cloneResidents(gov.Residents)
	return h
}

func findSibling(gov *Lease, leases []Lease) *Lease {
	names := nameSet(gov.Residents)
	kind := gov.Kind()

	var best *Lease
	for i := range leases {
		l := &leases[i]
		if l.ID == gov.ID || !l.HasVerifiedResident() {
			continue
		}
		if l.Kind() != kind {
			continue
		}
		if !l.Term.SameAs(gov.Term) || !generic.SameMoney(l.Rent, gov.Rent) {
			continue
		}
		if !sameNames(names, nameSet(l.Residents)) {
			continue
		}
		if best == nil || createdLater(l, best) {
			best = l
		}
	}
	return best
}

func nameSet(residents []Resident) []string {
	seen := make(map[string]bool, len(residents))
	out := make([]string, 0, len(residents))
	for _, r := range residents {
		n := normalizedName(r.Name)
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneResidents(rs []Resident) []Resident {
	if len(rs) == 0 {
		return nil
	}
	out := make([]Resident, len(rs))
	for i, r := range rs {
		out[i] = r.clone()
	}
	return out
}
