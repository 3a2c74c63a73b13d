package serviceimpl

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"safesight/domain/models"
	"safesight/domain/repositories"
	"safesight/domain/services"
	"safesight/infrastructure/cache"
	"safesight/infrastructure/visionapi"
	"safesight/pkg/logger"
)

type IdentityServiceImpl struct {
	identityRepo repositories.IdentityRepository
	readCache    *cache.ReadCache
	visionClient *visionapi.VisionClient // nil when the vision service is disabled
}

func NewIdentityService(
	identityRepo repositories.IdentityRepository,
	readCache *cache.ReadCache,
	visionClient *visionapi.VisionClient,
) services.IdentityService {
	return &IdentityServiceImpl{
		identityRepo: identityRepo,
		readCache:    readCache,
		visionClient: visionClient,
	}
}

func (s *IdentityServiceImpl) Register(ctx context.Context, input services.RegisterIdentityInput) (*models.Identity, error) {
	existing, err := s.identityRepo.GetByCode(ctx, input.Code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, services.ErrIdentityExists
	}

	identity := &models.Identity{
		Code:       input.Code,
		Name:       input.Name,
		Department: input.Department,
		Active:     true,
	}
	if err := s.identityRepo.Create(ctx, identity); err != nil {
		return nil, err
	}

	logger.Ledger("identity_registered", "Identity registered", map[string]interface{}{
		"code":       identity.Code,
		"department": identity.Department,
	})
	return identity, nil
}

func (s *IdentityServiceImpl) Get(ctx context.Context, code string) (*models.Identity, error) {
	if identity, ok := s.readCache.GetIdentity(code); ok {
		return identity, nil
	}

	identity, err := s.identityRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrIdentityNotFound
		}
		return nil, err
	}

	s.readCache.SetIdentity(code, identity)
	return identity, nil
}

func (s *IdentityServiceImpl) List(ctx context.Context, department string, page, limit int) ([]models.Identity, int64, error) {
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	return s.identityRepo.List(ctx, department, offset, limit)
}

func (s *IdentityServiceImpl) Update(ctx context.Context, code string, input services.UpdateIdentityInput) (*models.Identity, error) {
	identity, err := s.identityRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrIdentityNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		identity.Name = *input.Name
	}
	if input.Department != nil {
		identity.Department = *input.Department
	}

	if err := s.identityRepo.Update(ctx, code, identity); err != nil {
		return nil, err
	}

	s.readCache.Invalidate(code)
	return identity, nil
}

func (s *IdentityServiceImpl) RequestTraining(ctx context.Context, code string) error {
	if _, err := s.Get(ctx, code); err != nil {
		return err
	}

	if s.visionClient == nil {
		return fmt.Errorf("vision service is not configured")
	}

	if err := s.visionClient.Train(ctx, code); err != nil {
		return fmt.Errorf("recognition training failed: %w", err)
	}

	return s.MarkRecognitionTrained(ctx, code)
}

func (s *IdentityServiceImpl) MarkRecognitionTrained(ctx context.Context, code string) error {
	if err := s.identityRepo.SetRecognitionEnabled(ctx, code, true); err != nil {
		return err
	}

	s.readCache.Invalidate(code)
	logger.Ledger("recognition_trained", "Recognition training completed", map[string]interface{}{"code": code})
	return nil
}

func (s *IdentityServiceImpl) Deactivate(ctx context.Context, code string) error {
	if _, err := s.Get(ctx, code); err != nil {
		return err
	}

	if err := s.identityRepo.Deactivate(ctx, code); err != nil {
		return err
	}

	s.readCache.Invalidate(code)
	logger.Ledger("identity_deactivated", "Identity deactivated", map[string]interface{}{"code": code})
	return nil
}
