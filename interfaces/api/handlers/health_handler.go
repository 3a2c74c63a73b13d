package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"safesight/infrastructure/cache"
	"safesight/infrastructure/redis"
	"safesight/infrastructure/visionapi"
	"safesight/infrastructure/worker"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db              *gorm.DB
	redisClient     *redis.RedisClient
	visionClient    *visionapi.VisionClient
	readCache       *cache.ReadCache
	detectionWorker *worker.DetectionWorker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	db *gorm.DB,
	redisClient *redis.RedisClient,
	visionClient *visionapi.VisionClient,
	readCache *cache.ReadCache,
	detectionWorker *worker.DetectionWorker,
) *HealthHandler {
	return &HealthHandler{
		db:              db,
		redisClient:     redisClient,
		visionClient:    visionClient,
		readCache:       readCache,
		detectionWorker: detectionWorker,
	}
}

// ComponentHealth represents health status of a component
type ComponentHealth struct {
	Status  string `json:"status"` // "ok", "error", "unavailable"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// DetailedHealthResponse represents detailed health check response
type DetailedHealthResponse struct {
	Status     string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
	Metrics    *HealthMetrics             `json:"metrics,omitempty"`
}

// HealthMetrics contains runtime metrics
type HealthMetrics struct {
	CachedEntries  int `json:"cached_entries"`
	QueuedEvents   int `json:"queued_events"`
	QueuedCapacity int `json:"queued_capacity"`
}

// DetailedHealth returns health status of all system components.
func (h *HealthHandler) DetailedHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	response := DetailedHealthResponse{
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
	}

	allHealthy := true
	hasCriticalFailure := false

	dbHealth := h.checkDatabase(ctx)
	response.Components["database"] = dbHealth
	if dbHealth.Status != "ok" {
		hasCriticalFailure = true
	}

	redisHealth := h.checkRedis(ctx)
	response.Components["redis"] = redisHealth
	if redisHealth.Status == "error" {
		allHealthy = false
	}

	visionHealth := h.checkVisionAPI(ctx)
	response.Components["vision_api"] = visionHealth
	if visionHealth.Status == "error" {
		allHealthy = false
	}

	response.Metrics = h.getMetrics()

	if hasCriticalFailure {
		response.Status = "unhealthy"
	} else if !allHealthy {
		response.Status = "degraded"
	} else {
		response.Status = "healthy"
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.db == nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database not configured",
		}
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Failed to get database connection: " + err.Error(),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.redisClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Redis not configured",
		}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Redis ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkVisionAPI(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.visionClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Vision API not configured",
		}
	}

	health, err := h.visionClient.Health(ctx)
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Vision API health check failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Model: " + health.Model + ", Version: " + health.Version,
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) getMetrics() *HealthMetrics {
	metrics := &HealthMetrics{}

	if h.readCache != nil {
		metrics.CachedEntries = h.readCache.ItemCount()
	}
	if h.detectionWorker != nil {
		metrics.QueuedEvents = h.detectionWorker.QueueDepth()
		metrics.QueuedCapacity = h.detectionWorker.QueueCapacity()
	}

	return metrics
}
