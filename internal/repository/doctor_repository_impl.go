package repository

import (
	"context"
	"errors"

	"visit-tracking-service/internal/domain/entity"
	domainRepo "visit-tracking-service/internal/domain/repository"

	"gorm.io/gorm"
)

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) domainRepo.DoctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) FindByID(ctx context.Context, id int64) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

type doctorPatientCount struct {
	DoctorID int64
	Total    int64
}

func (r *doctorRepository) CountDistinctPatientsPerDoctor(ctx context.Context, doctorIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(doctorIDs))
	if len(doctorIDs) == 0 {
		return counts, nil
	}

	var rows []doctorPatientCount
	if err := patientCountQuery(r.db.WithContext(ctx), doctorIDs).Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.DoctorID] = row.Total
	}
	return counts, nil
}

// patientCountQuery counts distinct patients over each doctor's whole visit history
func patientCountQuery(db *gorm.DB, doctorIDs []int64) *gorm.DB {
	return db.
		Model(&entity.Visit{}).
		Select("doctor_id, COUNT(DISTINCT patient_id) AS total").
		Where("doctor_id IN ?", doctorIDs).
		Group("doctor_id")
}
