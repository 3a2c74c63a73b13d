package di

import (
	"context"
	"time"

	"gorm.io/gorm"

	"safesight/application/serviceimpl"
	"safesight/domain/repositories"
	"safesight/domain/services"
	"safesight/infrastructure/cache"
	"safesight/infrastructure/postgres"
	"safesight/infrastructure/redis"
	"safesight/infrastructure/visionapi"
	"safesight/infrastructure/websocket"
	"safesight/infrastructure/worker"
	"safesight/pkg/config"
	"safesight/pkg/logger"
	"safesight/pkg/scheduler"
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redis.RedisClient
	ReadCache      *cache.ReadCache
	EventScheduler scheduler.EventScheduler
	VisionClient   *visionapi.VisionClient
	DetectionFeed  services.DetectionFeed

	// Repositories
	UserRepository             repositories.UserRepository
	IdentityRepository         repositories.IdentityRepository
	PresenceRepository         repositories.PresenceRepository
	DetectionSessionRepository repositories.DetectionSessionRepository

	// Services
	LedgerService   services.LedgerService
	IdentityService services.IdentityService
	AuthService     services.AuthService

	// Workers
	DetectionWorker *worker.DetectionWorker

	// WebSocket
	WebSocketManager *websocket.Manager

	feedCancel context.CancelFunc
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	if err := c.initWorkers(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Startup("config_loaded", "Configuration loaded", nil)
	return nil
}

func (c *Container) initInfrastructure() error {
	// Initialize Database
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Startup("db_connected", "Database connected", nil)

	// Run migrations
	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Startup("db_migrated", "Database migrated", nil)

	// Initialize Redis (live detection feed; the ledger works without it)
	redisConfig := redis.RedisConfig{
		Host:     c.Config.Redis.Host,
		Port:     c.Config.Redis.Port,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
	c.RedisClient = redis.NewRedisClient(redisConfig)

	if err := c.RedisClient.Ping(context.Background()); err != nil {
		logger.StartupWarn("redis_connection_failed", "Redis connection failed, live detection feed disabled", map[string]interface{}{"error": err.Error()})
	} else {
		logger.Startup("redis_connected", "Redis connected", nil)
		c.DetectionFeed = redis.NewDetectionFeedPublisher(c.RedisClient)
	}

	// Initialize read cache
	c.ReadCache = cache.NewReadCache(c.Config.Ledger.CacheTTL)
	logger.Startup("cache_initialized", "Read cache initialized", map[string]interface{}{"ttl": c.Config.Ledger.CacheTTL.String()})

	// Initialize Vision API client
	if c.Config.VisionAPI.Enabled {
		c.VisionClient = visionapi.NewVisionClient(c.Config.VisionAPI.BaseURL)
		logger.Startup("vision_client_initialized", "Vision API client initialized", map[string]interface{}{"base_url": c.Config.VisionAPI.BaseURL})
	} else {
		logger.StartupWarn("vision_api_disabled", "Vision API disabled, recognition training unavailable", nil)
	}

	return nil
}

func (c *Container) initRepositories() error {
	c.UserRepository = postgres.NewUserRepository(c.DB)
	c.IdentityRepository = postgres.NewIdentityRepository(c.DB)
	c.PresenceRepository = postgres.NewPresenceRepository(c.DB)
	c.DetectionSessionRepository = postgres.NewDetectionSessionRepository(c.DB)
	logger.Startup("repositories_initialized", "Repositories initialized", nil)
	return nil
}

func (c *Container) initServices() error {
	loc, err := time.LoadLocation(c.Config.Ledger.Timezone)
	if err != nil {
		logger.StartupWarn("timezone_invalid", "Invalid ledger timezone, falling back to system local", map[string]interface{}{"timezone": c.Config.Ledger.Timezone})
		loc = time.Local
	}

	c.LedgerService = serviceimpl.NewLedgerService(
		c.IdentityRepository,
		c.PresenceRepository,
		c.DetectionSessionRepository,
		c.ReadCache,
		c.DetectionFeed,
		serviceimpl.LedgerOptions{
			ConfidenceThreshold: c.Config.Ledger.ConfidenceThreshold,
			Cooldown:            c.Config.Ledger.Cooldown,
			Timezone:            loc,
			HistoryWindowDays:   c.Config.Ledger.HistoryWindowDays,
		},
	)

	c.IdentityService = serviceimpl.NewIdentityService(c.IdentityRepository, c.ReadCache, c.VisionClient)
	c.AuthService = serviceimpl.NewAuthService(c.UserRepository, c.Config.JWT.Secret)

	logger.Startup("services_initialized", "Services initialized", nil)
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()
	c.EventScheduler.Start()
	logger.Startup("scheduler_started", "Event scheduler started", nil)

	// Nightly retention cleanup for detection session audit rows
	retentionDays := c.Config.Retention.SessionDays
	err := c.EventScheduler.AddJob("session-retention", c.Config.Retention.CleanupCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		deleted, err := c.DetectionSessionRepository.DeleteOlderThan(ctx, retentionDays)
		if err != nil {
			logger.SchedulerError("session_retention_failed", "Session retention cleanup failed", err, nil)
			return
		}
		logger.Scheduler("session_retention_done", "Session retention cleanup completed", map[string]interface{}{
			"deleted":        deleted,
			"retention_days": retentionDays,
		})
	})
	if err != nil {
		logger.SchedulerWarn("session_retention_schedule_failed", "Failed to schedule retention cleanup", map[string]interface{}{"error": err.Error()})
	}

	return nil
}

func (c *Container) initWorkers() error {
	c.DetectionWorker = worker.NewDetectionWorker(
		c.LedgerService,
		c.Config.Worker.QueueSize,
		c.Config.Worker.Concurrency,
	)
	c.DetectionWorker.Start()

	// WebSocket manager fans the Redis detection feed out to dashboards
	c.WebSocketManager = websocket.NewManager(c.RedisClient)
	feedCtx, cancel := context.WithCancel(context.Background())
	c.feedCancel = cancel
	go c.WebSocketManager.Run(feedCtx)

	logger.Startup("workers_initialized", "Detection worker and feed started", nil)
	return nil
}

// Cleanup shuts down background machinery in reverse order of start.
func (c *Container) Cleanup() {
	if c.feedCancel != nil {
		c.feedCancel()
	}

	if c.DetectionWorker != nil {
		c.DetectionWorker.Stop()
	}

	if c.EventScheduler != nil {
		c.EventScheduler.Stop()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.StartupWarn("redis_close_failed", "Failed to close Redis connection", map[string]interface{}{"error": err.Error()})
		}
	}

	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	logger.Default().Close()
}
