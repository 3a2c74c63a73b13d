package services

import (
	"context"
	"errors"

	"safesight/domain/models"
)

var (
	// ErrIdentityExists is returned when registering a duplicate code
	ErrIdentityExists = errors.New("identity code already registered")

	// ErrIdentityNotFound is returned for lookups of unregistered codes
	ErrIdentityNotFound = errors.New("identity not found")
)

type RegisterIdentityInput struct {
	Code       string
	Name       string
	Department string
}

type UpdateIdentityInput struct {
	Name       *string
	Department *string
}

// IdentityService backs the registration workflow. Identities are never
// deleted, only deactivated.
type IdentityService interface {
	Register(ctx context.Context, input RegisterIdentityInput) (*models.Identity, error)
	Get(ctx context.Context, code string) (*models.Identity, error)
	List(ctx context.Context, department string, page, limit int) ([]models.Identity, int64, error)
	Update(ctx context.Context, code string, input UpdateIdentityInput) (*models.Identity, error)

	// RequestTraining asks the vision service to train recognition for the
	// identity and flips the recognition flag on success
	RequestTraining(ctx context.Context, code string) error

	// MarkRecognitionTrained is called when recognition training completes
	MarkRecognitionTrained(ctx context.Context, code string) error

	Deactivate(ctx context.Context, code string) error
}
