package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"safesight/domain/models"
	"safesight/domain/repositories"
)

type DetectionSessionRepositoryImpl struct {
	db *gorm.DB
}

func NewDetectionSessionRepository(db *gorm.DB) repositories.DetectionSessionRepository {
	return &DetectionSessionRepositoryImpl{db: db}
}

func (r *DetectionSessionRepositoryImpl) Append(ctx context.Context, session *models.DetectionSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *DetectionSessionRepositoryImpl) GetRecent(ctx context.Context, limit int) ([]models.DetectionSession, error) {
	var sessions []models.DetectionSession
	err := r.db.WithContext(ctx).
		Order("detected_at DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *DetectionSessionRepositoryImpl) CountByIdentitySince(ctx context.Context, identityCode string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DetectionSession{}).
		Where("identity_code = ? AND detected_at >= ?", identityCode, since).
		Count(&count).Error
	return count, err
}

func (r *DetectionSessionRepositoryImpl) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	result := r.db.WithContext(ctx).
		Where("detected_at < ?", cutoff).
		Delete(&models.DetectionSession{})
	return result.RowsAffected, result.Error
}
