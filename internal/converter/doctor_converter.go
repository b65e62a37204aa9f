package converter

import (
	"visit-tracking-service/internal/delivery/dto"
	"visit-tracking-service/internal/domain/entity"
)

// DoctorToDetailSummary converts a Doctor entity to DoctorDetailSummary DTO
func DoctorToDetailSummary(doctor *entity.Doctor) *dto.DoctorDetailSummary {
	if doctor == nil {
		return nil
	}

	return &dto.DoctorDetailSummary{
		ID:        doctor.ID,
		FirstName: doctor.FirstName,
		LastName:  doctor.LastName,
		Timezone:  doctor.Timezone,
	}
}

// DoctorToPatientsSummary converts a Doctor entity plus its distinct-patient count
func DoctorToPatientsSummary(doctor *entity.Doctor, totalPatients int64) dto.DoctorPatientsSummary {
	return dto.DoctorPatientsSummary{
		FirstName:     doctor.FirstName,
		LastName:      doctor.LastName,
		TotalPatients: totalPatients,
	}
}
