package repository

import (
	"context"

	"visit-tracking-service/internal/domain/entity"
)

// SeedRepository bulk-loads fixture data. Create methods fill in generated IDs.
type SeedRepository interface {
	CountDoctors(ctx context.Context) (int64, error)
	CreateDoctors(ctx context.Context, doctors []entity.Doctor) error
	CreatePatients(ctx context.Context, patients []entity.Patient) error
	CreateVisits(ctx context.Context, visits []entity.Visit) error
}
