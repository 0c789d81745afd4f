package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

var _ repo.AuditLogRepository = (*AuditLogGormRepository)(nil)

func (r *AuditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&log).Error
}

func (r *AuditLogGormRepository) History(ctx context.Context, hq repo.AuditHistoryQuery) ([]model.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if hq.ResourceType != "" {
		q = q.Where("resource_type = ?", hq.ResourceType)
	}
	if hq.ResourceID > 0 {
		q = q.Where("resource_id = ?", hq.ResourceID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.AuditLog{}, 0, err
	}

	logs := []model.AuditLog{}
	offset := (hq.Page - 1) * hq.Limit
	if err := q.Order("created_at desc").Order("id desc").Limit(hq.Limit).Offset(offset).Find(&logs).Error; err != nil {
		return []model.AuditLog{}, 0, err
	}
	return logs, total, nil
}
