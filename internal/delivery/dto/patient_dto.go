package dto

// Request DTOs

// ListPatientsRequest carries already-parsed query parameters.
// Zero Page or Size means "not given".
type ListPatientsRequest struct {
	Page      int
	Size      int
	Search    string
	DoctorIDs []int64
}

// Response DTOs

type PatientSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LastVisitResponse struct {
	Start  string                `json:"start"` // doctor's local time
	End    string                `json:"end"`
	Doctor DoctorPatientsSummary `json:"doctor"`
}

type PatientVisitResponse struct {
	FirstName  string              `json:"firstName"`
	LastName   string              `json:"lastName"`
	LastVisits []LastVisitResponse `json:"lastVisits"`
}

type PatientsListResponse struct {
	Data  []PatientVisitResponse `json:"data"`
	Count int64                  `json:"count"`
}
