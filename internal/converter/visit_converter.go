package converter

import (
	"time"

	"visit-tracking-service/internal/delivery/dto"
	"visit-tracking-service/internal/domain/entity"
)

// VisitToResponse converts a Visit entity to VisitResponse DTO
func VisitToResponse(visit *entity.Visit) *dto.VisitResponse {
	if visit == nil {
		return nil
	}

	response := &dto.VisitResponse{
		ID:    visit.ID,
		Start: visit.StartDateTime.Format(time.RFC3339),
		End:   visit.EndDateTime.Format(time.RFC3339),
	}

	// Include relations if loaded
	if visit.Patient.ID != 0 {
		response.Patient = PatientToSummary(&visit.Patient)
	}
	if visit.Doctor.ID != 0 {
		response.Doctor = DoctorToDetailSummary(&visit.Doctor)
	}

	return response
}
