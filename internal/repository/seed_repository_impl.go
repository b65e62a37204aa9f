package repository

import (
	"context"

	"visit-tracking-service/internal/domain/entity"
	domainRepo "visit-tracking-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedBatchSize = 500

type seedRepository struct {
	db *gorm.DB
}

func NewSeedRepository(db *gorm.DB) domainRepo.SeedRepository {
	return &seedRepository{db: db}
}

func (r *seedRepository) CountDoctors(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Doctor{}).Count(&count).Error
	return count, err
}

func (r *seedRepository) CreateDoctors(ctx context.Context, doctors []entity.Doctor) error {
	if len(doctors) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&doctors, seedBatchSize).Error
}

func (r *seedRepository) CreatePatients(ctx context.Context, patients []entity.Patient) error {
	if len(patients) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&patients, seedBatchSize).Error
}

func (r *seedRepository) CreateVisits(ctx context.Context, visits []entity.Visit) error {
	if len(visits) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&visits, seedBatchSize).Error
}
