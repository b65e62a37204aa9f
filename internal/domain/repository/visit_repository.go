package repository

import (
	"context"
	"time"

	"visit-tracking-service/internal/domain/entity"
)

type VisitRepository interface {
	// FindByPatientIDs returns visits with Patient and Doctor loaded,
	// ordered by start descending then id ascending
	FindByPatientIDs(ctx context.Context, patientIDs []int64) ([]entity.Visit, error)
	ExistsConflict(ctx context.Context, doctorID int64, start, end time.Time) (bool, error)
	Create(ctx context.Context, visit *entity.Visit) error
}
