package entity

import "time"

// Interval is a half-open time range [Start, End).
// Both ends must be in the same reference frame when compared.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether candidate conflicts with existing.
//
// A conflict exists when any of the following holds:
//  1. candidate starts inside existing
//  2. candidate ends inside existing
//  3. existing lies entirely within candidate
//
// Back-to-back intervals (existing.End == candidate.Start) do not conflict.
func Overlaps(existing, candidate Interval) bool {
	// existing.start <= candidate.start && existing.end > candidate.start
	if !existing.Start.After(candidate.Start) && existing.End.After(candidate.Start) {
		return true
	}
	// existing.start < candidate.end && existing.end >= candidate.end
	if existing.Start.Before(candidate.End) && !existing.End.Before(candidate.End) {
		return true
	}
	// existing.start >= candidate.start && existing.end <= candidate.end
	if !existing.Start.Before(candidate.Start) && !existing.End.After(candidate.End) {
		return true
	}
	return false
}

// OverlapsAny reports whether candidate conflicts with at least one of existing
func OverlapsAny(existing []Interval, candidate Interval) bool {
	for _, e := range existing {
		if Overlaps(e, candidate) {
			return true
		}
	}
	return false
}
