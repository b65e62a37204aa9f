package repository

import (
	"context"

	"visit-tracking-service/internal/domain/entity"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
}
