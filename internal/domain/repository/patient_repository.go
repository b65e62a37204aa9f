package repository

import (
	"context"

	"visit-tracking-service/internal/domain/entity"
)

type PatientRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Patient, error)
	// FindPatients returns one page of patients ordered by id and the total match count
	FindPatients(ctx context.Context, filter entity.PatientFilter) ([]entity.Patient, int64, error)
}
