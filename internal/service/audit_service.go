package service

import (
	"context"

	"visit-tracking-service/internal/domain/entity"
	"visit-tracking-service/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

type AuditService interface {
	LogCreate(ctx context.Context, action string, entityName string, entityID int64, newValue interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, action string, entityName string, entityID int64, newValue interface{}) error {
	auditLog := &entity.AuditLog{
		Action: action,
		Metadata: entity.JSON{
			"entity":    entityName,
			"entity_id": entityID,
			"new_value": newValue,
		},
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
