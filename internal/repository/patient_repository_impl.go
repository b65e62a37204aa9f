package repository

import (
	"context"
	"errors"
	"strings"

	"visit-tracking-service/internal/domain/entity"
	domainRepo "visit-tracking-service/internal/domain/repository"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) domainRepo.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) FindByID(ctx context.Context, id int64) (*entity.Patient, error) {
	var patient entity.Patient
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindPatients(ctx context.Context, filter entity.PatientFilter) ([]entity.Patient, int64, error) {
	var patients []entity.Patient
	var total int64

	if err := r.db.WithContext(ctx).Model(&entity.Patient{}).Scopes(patientFilterScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entity.Patient{}, 0, nil
	}

	err := patientPageQuery(r.db.WithContext(ctx), filter).Find(&patients).Error
	if err != nil {
		return nil, 0, err
	}

	return patients, total, nil
}

func patientPageQuery(db *gorm.DB, filter entity.PatientFilter) *gorm.DB {
	return db.
		Scopes(patientFilterScope(filter)).
		Order("patients.id ASC").
		Limit(filter.PageSize).
		Offset(filter.Offset())
}

// patientFilterScope applies the name search and the doctor filter.
// The doctor filter uses EXISTS so a patient with several matching visits appears once.
func patientFilterScope(filter entity.PatientFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(filter.Search) != "" {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
			db = db.Where("LOWER(CONCAT(patients.first_name, ' ', patients.last_name)) LIKE ? ESCAPE '\\'", pattern)
		}
		if len(filter.DoctorIDs) > 0 {
			db = db.Where("EXISTS (SELECT 1 FROM visits WHERE visits.patient_id = patients.id AND visits.doctor_id IN ?)", filter.DoctorIDs)
		}
		return db
	}
}
