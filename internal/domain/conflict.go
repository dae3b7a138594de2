package domain

import "time"

// FindConflict returns the first contract whose blocking reservation of a
// room overlaps [start, end] under inclusive bounds, or nil if the range is
// free. Soft-deleted contracts never block, and excludeID skips the contract
// being edited so it does not conflict with itself.
//
// Overlap is the three-part disjunction: the new start falls within an
// existing range, the new end falls within an existing range, or the new
// range fully contains an existing one. Together these cover partial and
// full containment in both directions.
func FindConflict(existing []Contract, start, end time.Time, excludeID string) *Contract {
	for i := range existing {
		c := &existing[i]
		if c.ID == excludeID || c.Deleted() || !c.Status.Blocking() {
			continue
		}
		if rangesOverlap(start, end, c.StartDate, c.EndDate) {
			return c
		}
	}
	return nil
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	switch {
	case within(aStart, bStart, bEnd):
		return true
	case within(aEnd, bStart, bEnd):
		return true
	case !aStart.After(bStart) && !aEnd.Before(bEnd):
		return true
	}
	return false
}

// within reports lo <= t <= hi.
func within(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}
