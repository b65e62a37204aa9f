package entity

import "math"

// PatientFilter is a domain-level filter for paging through patients.
// Used by repository layer to avoid coupling with delivery DTOs.
type PatientFilter struct {
	Search     string  // Case-insensitive substring of "first last", blank matches all
	DoctorIDs  []int64 // When non-empty, only patients with a visit to one of these doctors
	PageNumber int     // 0-based
	PageSize   int
}

// Offset returns the number of rows to skip for the requested page.
// It saturates at math.MaxInt instead of overflowing.
func (f PatientFilter) Offset() int {
	if f.PageNumber <= 0 || f.PageSize <= 0 {
		return 0
	}
	if f.PageNumber > math.MaxInt/f.PageSize {
		return math.MaxInt
	}
	return f.PageNumber * f.PageSize
}
