package repository

import (
	"context"

	"visit-tracking-service/internal/domain/entity"
)

type DoctorRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Doctor, error)
	// CountDistinctPatientsPerDoctor counts over the whole visit history.
	// Doctors without visits are absent from the result.
	CountDistinctPatientsPerDoctor(ctx context.Context, doctorIDs []int64) (map[int64]int64, error)
}
