package converter

import (
	"visit-tracking-service/internal/delivery/dto"
	"visit-tracking-service/internal/domain/entity"
)

// PatientToSummary converts a Patient entity to PatientSummary DTO
func PatientToSummary(patient *entity.Patient) *dto.PatientSummary {
	if patient == nil {
		return nil
	}

	return &dto.PatientSummary{
		ID:        patient.ID,
		FirstName: patient.FirstName,
		LastName:  patient.LastName,
	}
}
