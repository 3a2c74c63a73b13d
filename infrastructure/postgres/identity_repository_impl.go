package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"safesight/domain/models"
	"safesight/domain/repositories"
)

type IdentityRepositoryImpl struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) repositories.IdentityRepository {
	return &IdentityRepositoryImpl{db: db}
}

func (r *IdentityRepositoryImpl) Create(ctx context.Context, identity *models.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

func (r *IdentityRepositoryImpl) GetByCode(ctx context.Context, code string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&identity).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *IdentityRepositoryImpl) List(ctx context.Context, department string, offset, limit int) ([]models.Identity, int64, error) {
	var identities []models.Identity
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Identity{})
	if department != "" {
		query = query.Where("department = ?", department)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&identities).Error

	return identities, total, err
}

func (r *IdentityRepositoryImpl) ListActive(ctx context.Context) ([]models.Identity, error) {
	var identities []models.Identity
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&identities).Error
	return identities, err
}

func (r *IdentityRepositoryImpl) ListAll(ctx context.Context) ([]models.Identity, error) {
	var identities []models.Identity
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&identities).Error
	return identities, err
}

func (r *IdentityRepositoryImpl) Update(ctx context.Context, code string, identity *models.Identity) error {
	identity.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Where("code = ?", code).Updates(identity).Error
}

func (r *IdentityRepositoryImpl) SetRecognitionEnabled(ctx context.Context, code string, enabled bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"recognition_enabled": enabled,
			"updated_at":          time.Now(),
		}).Error
}

func (r *IdentityRepositoryImpl) Deactivate(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		}).Error
}
