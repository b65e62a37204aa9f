package dto

// Request DTOs

type CreateVisitRequest struct {
	Start     string `json:"start" validate:"notblank"` // Format: YYYY-MM-DDTHH:mm:ss, doctor's local time
	End       string `json:"end" validate:"notblank"`   // Format: YYYY-MM-DDTHH:mm:ss, doctor's local time
	PatientID int64  `json:"patientId" validate:"required,gt=0"`
	DoctorID  int64  `json:"doctorId" validate:"required,gt=0"`
}

// Response DTOs

type VisitResponse struct {
	ID      int64                `json:"id"`
	Start   string               `json:"start"` // RFC 3339, canonical timezone
	End     string               `json:"end"`
	Patient *PatientSummary      `json:"patient,omitempty"`
	Doctor  *DoctorDetailSummary `json:"doctor,omitempty"`
}
