package dto

// Response DTOs

type DoctorDetailSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Timezone  string `json:"timezone"`
}

// DoctorPatientsSummary is the doctor block of a last-visit entry
type DoctorPatientsSummary struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	TotalPatients int64  `json:"totalPatients"`
}
