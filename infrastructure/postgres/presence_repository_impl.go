package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"safesight/domain/models"
	"safesight/domain/repositories"
)

type PresenceRepositoryImpl struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) repositories.PresenceRepository {
	return &PresenceRepositoryImpl{db: db}
}

// Upsert relies on the (identity_code, day) unique index: the insert path sets
// first_seen = last_seen, the conflict path only moves last_seen forward and
// refreshes confidence/location. first_seen is never touched after creation,
// so retries after a partial failure stay idempotent.
func (r *PresenceRepositoryImpl) Upsert(ctx context.Context, up repositories.PresenceUpsert) error {
	rec := models.PresenceRecord{
		IdentityCode:   up.IdentityCode,
		Day:            up.Day,
		FirstSeen:      up.SeenAt,
		LastSeen:       up.SeenAt,
		Status:         models.StatusPresent,
		Location:       up.Location,
		LastConfidence: up.Confidence,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identity_code"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_seen":       gorm.Expr("GREATEST(presence_records.last_seen, EXCLUDED.last_seen)"),
			"last_confidence": gorm.Expr("EXCLUDED.last_confidence"),
			"location":        gorm.Expr("EXCLUDED.location"),
			"updated_at":      gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(&rec).Error
}

func (r *PresenceRepositoryImpl) Get(ctx context.Context, identityCode, day string) (*models.PresenceRecord, error) {
	var rec models.PresenceRecord
	err := r.db.WithContext(ctx).
		Where("identity_code = ? AND day = ?", identityCode, day).
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *PresenceRepositoryImpl) QueryDaily(ctx context.Context, day string) ([]models.PresenceRecord, error) {
	var records []models.PresenceRecord
	err := r.db.WithContext(ctx).
		Where("day = ?", day).
		Order("first_seen ASC").
		Find(&records).Error
	return records, err
}

func (r *PresenceRepositoryImpl) QueryIdentityHistory(ctx context.Context, identityCode, sinceDay string) ([]models.PresenceRecord, error) {
	var records []models.PresenceRecord
	err := r.db.WithContext(ctx).
		Where("identity_code = ? AND day >= ?", identityCode, sinceDay).
		Order("day ASC").
		Find(&records).Error
	return records, err
}

func (r *PresenceRepositoryImpl) QueryRange(ctx context.Context, startDay, endDay, department string) ([]models.PresenceRecord, error) {
	var records []models.PresenceRecord

	query := r.db.WithContext(ctx).
		Where("presence_records.day BETWEEN ? AND ?", startDay, endDay)

	if department != "" {
		query = query.
			Joins("JOIN identities ON identities.code = presence_records.identity_code").
			Where("identities.department = ?", department)
	}

	err := query.
		Order("presence_records.day ASC, presence_records.identity_code ASC").
		Find(&records).Error
	return records, err
}

func (r *PresenceRepositoryImpl) DeleteByDay(ctx context.Context, day string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("day = ?", day).
		Delete(&models.PresenceRecord{})
	return result.RowsAffected, result.Error
}
