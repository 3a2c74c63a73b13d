package repositories

import (
	"context"

	"safesight/domain/models"
)

type IdentityRepository interface {
	// Create registers a new identity
	Create(ctx context.Context, identity *models.Identity) error

	// GetByCode returns an identity by its external code
	GetByCode(ctx context.Context, code string) (*models.Identity, error)

	// List returns identities with pagination, optionally filtered by department
	List(ctx context.Context, department string, offset, limit int) ([]models.Identity, int64, error)

	// ListActive returns all active identities (for daily statistics)
	ListActive(ctx context.Context) ([]models.Identity, error)

	// ListAll returns every identity including deactivated ones (exports keep
	// historical names)
	ListAll(ctx context.Context) ([]models.Identity, error)

	// Update mutates name/department/recognition flags
	Update(ctx context.Context, code string, identity *models.Identity) error

	// SetRecognitionEnabled flips the recognition-trained flag
	SetRecognitionEnabled(ctx context.Context, code string, enabled bool) error

	// Deactivate soft-disables an identity (identities are never deleted)
	Deactivate(ctx context.Context, code string) error
}
