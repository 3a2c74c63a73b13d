package handlers

import (
	"gorm.io/gorm"

	"safesight/domain/services"
	"safesight/infrastructure/cache"
	"safesight/infrastructure/redis"
	"safesight/infrastructure/visionapi"
	"safesight/infrastructure/worker"
	"safesight/pkg/config"
)

// Services contains all the services needed for handlers
type Services struct {
	LedgerService   services.LedgerService
	IdentityService services.IdentityService
	AuthService     services.AuthService
}

// Infrastructure contains shared infrastructure some handlers need directly
type Infrastructure struct {
	DB              *gorm.DB
	RedisClient     *redis.RedisClient
	VisionClient    *visionapi.VisionClient
	ReadCache       *cache.ReadCache
	DetectionWorker *worker.DetectionWorker
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Detection  *DetectionHandler
	Statistics *StatisticsHandler
	Identity   *IdentityHandler
	Export     *ExportHandler
	Auth       *AuthHandler
	Health     *HealthHandler
}

// NewHandlers creates all handlers from services and infrastructure
func NewHandlers(svc Services, infra Infrastructure, cfg *config.Config) *Handlers {
	return &Handlers{
		Detection:  NewDetectionHandler(svc.LedgerService, infra.DetectionWorker),
		Statistics: NewStatisticsHandler(svc.LedgerService),
		Identity:   NewIdentityHandler(svc.IdentityService),
		Export:     NewExportHandler(svc.LedgerService),
		Auth:       NewAuthHandler(svc.AuthService),
		Health:     NewHealthHandler(infra.DB, infra.RedisClient, infra.VisionClient, infra.ReadCache, infra.DetectionWorker),
	}
}
