package repository

import (
	"context"
	"time"

	"visit-tracking-service/internal/domain/entity"
	domainRepo "visit-tracking-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type visitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) domainRepo.VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) FindByPatientIDs(ctx context.Context, patientIDs []int64) ([]entity.Visit, error) {
	visits := []entity.Visit{}
	if len(patientIDs) == 0 {
		return visits, nil
	}

	if err := patientVisitsQuery(r.db.WithContext(ctx), patientIDs).Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// patientVisitsQuery loads visits with both relations, newest first
func patientVisitsQuery(db *gorm.DB, patientIDs []int64) *gorm.DB {
	return db.
		Joins("Patient").
		Joins("Doctor").
		Where("visits.patient_id IN ?", patientIDs).
		Order("visits.start_date_time DESC, visits.id ASC")
}

// ExistsConflict evaluates the same three overlap conditions as entity.Overlaps,
// with each stored visit as the existing interval.
func (r *visitRepository) ExistsConflict(ctx context.Context, doctorID int64, start, end time.Time) (bool, error) {
	var exists bool
	if err := conflictQuery(r.db.WithContext(ctx), doctorID, start, end).Scan(&exists).Error; err != nil {
		return false, err
	}
	return exists, nil
}

func conflictQuery(db *gorm.DB, doctorID int64, start, end time.Time) *gorm.DB {
	return db.Raw(`
		SELECT EXISTS (
			SELECT 1 FROM visits
			WHERE doctor_id = @doctor
			AND (
				(start_date_time <= @start AND end_date_time > @start)
				OR (start_date_time < @end AND end_date_time >= @end)
				OR (start_date_time >= @start AND end_date_time <= @end)
			)
		)`,
		map[string]interface{}{"doctor": doctorID, "start": start, "end": end},
	)
}

func (r *visitRepository) Create(ctx context.Context, visit *entity.Visit) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(visit).Error
}
