package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"intranet-backend/internal/config"
	"intranet-backend/internal/domains/taxonomy"
	taxonomyHandler "intranet-backend/internal/domains/taxonomy/handler"
	taxonomyRepo "intranet-backend/internal/domains/taxonomy/repository"
	taxonomyService "intranet-backend/internal/domains/taxonomy/service"
	infraCache "intranet-backend/internal/infrastructure/cache"
	"intranet-backend/internal/infrastructure/database"
	"intranet-backend/internal/infrastructure/queue"
	"intranet-backend/internal/infrastructure/strapi"
	"intranet-backend/internal/infrastructure/woocommerce"
	"intranet-backend/internal/shared/health"
	"intranet-backend/pkg/cache"
	"intranet-backend/pkg/jwt"
)

const cacheKeyPrefix = "intranet:"

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every dependency of the API, worker and CLI.
// Optional parts (DB, Queue) stay nil when disabled or unreachable.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *redis.Client
	Cache      cache.Cache
	Queue      *asynq.Client
	JWTManager *jwt.Manager

	// ========================================
	// UPSTREAM CLIENTS
	// ========================================
	Strapi *strapi.Client
	Stores *woocommerce.Registry

	// ========================================
	// REPOSITORY / SERVICE / HANDLER
	// ========================================
	RunRepo         taxonomy.Repository
	TaxonomyService taxonomy.Service
	TaxonomyHandler *taxonomyHandler.TaxonomyHandler
	Health          *health.Handler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer builds the dependency graph in order:
// config, infrastructure, upstream clients, repository, service, handlers.
func NewContainer() (*Container, error) {
	log.Info().Msg("Initializing DI container")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewContainerWithConfig(cfg)
}

// NewContainerWithConfig builds the graph from an already loaded config
func NewContainerWithConfig(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}
	c.initClients()
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().Msg("DI container initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	// Journal database (optional)
	if cfg.Database.Enabled {
		db := database.NewPostgresDB(cfg.Database.DBConfig())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if _, err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		c.DB = db
		log.Info().Msg("Database connected")
	} else {
		log.Warn().Msg("Database disabled, reconciliation journal is off")
	}

	// Redis: idempotency keys and the job queue
	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	c.Cache = infraCache.NewRedisCache(c.Redis, cacheKeyPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Cache.Ping(ctx); err != nil {
		// Redis failure is not critical: idempotency fails open and
		// compensations are only logged
		log.Warn().Err(err).Msg("Redis connection failed (non-critical)")
	} else {
		log.Info().Msg("Redis connected")
	}

	c.Queue = asynq.NewClient(c.RedisOpt())
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)
	return nil
}

func (c *Container) initClients() {
	c.Strapi = strapi.NewClient(c.Config.Strapi)

	wc := c.Config.WooCommerce
	clients := make([]*woocommerce.Client, 0, len(wc.Stores))
	for _, store := range wc.Stores {
		clients = append(clients, woocommerce.NewClient(store))
	}
	c.Stores = woocommerce.NewRegistry(wc.DefaultPlatform, clients...)

	log.Info().
		Str("strapi", c.Config.Strapi.BaseURL).
		Strs("stores", c.Stores.Platforms()).
		Str("default_store", wc.DefaultPlatform).
		Msg("Upstream clients ready")
}

func (c *Container) initRepositories() {
	if c.DB != nil {
		c.RunRepo = taxonomyRepo.NewPostgresRepository(c.DB.Pool)
	}
}

func (c *Container) initServices() {
	var terms taxonomy.TermStore
	if store, ok := c.Stores.Default(); ok {
		terms = store
	}

	coupons := make(map[string]taxonomy.CouponStore)
	for _, platform := range c.Stores.Platforms() {
		store, _ := c.Stores.Store(platform)
		coupons[platform] = store
	}

	c.TaxonomyService = taxonomyService.NewTaxonomyService(
		c.Strapi,
		terms,
		c.Stores.DefaultPlatform(),
		coupons,
		c.RunRepo,
		queue.NewCompensationQueue(c.Queue, c.Config.Job.CompensationMaxRetry),
	)
}

func (c *Container) initHandlers() {
	c.TaxonomyHandler = taxonomyHandler.NewTaxonomyHandler(c.TaxonomyService)

	c.Health = health.NewHandler(c.Config.App.Version)
	if c.DB != nil {
		c.Health.Critical("database", c.DB.HealthCheck)
	} else {
		c.Health.Disabled("database")
	}
	c.Health.Optional("redis", c.Cache.Ping)
}

// ========================================
// HELPER METHODS
// ========================================

// RedisOpt is the asynq connection for clients, servers and schedulers
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup releases connections on shutdown
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources")

	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close queue client")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	log.Info().Msg("Container cleanup completed")
}
