package di

import (
	"context"
	"fmt"
	"time"

	"andrew-web-services/cmd/api/infrastructure"
	"andrew-web-services/internal/adapter/cache"
	ginhandler "andrew-web-services/internal/adapter/gin/handler"
	"andrew-web-services/internal/adapter/grpc/middleware"
	"andrew-web-services/internal/adapter/mailer"
	"andrew-web-services/internal/adapter/recsys"
	"andrew-web-services/internal/adapter/repository/cached"
	"andrew-web-services/internal/config"
	"andrew-web-services/internal/usecase/webservice"
	redisclient "andrew-web-services/pkg/redis"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	RecSysConn  *grpc.ClientConn
	Store       cached.Store
	WebUC       webservice.Usecase
	RateLimiter *middleware.RateLimiter
	GinHandler  *ginhandler.Handler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	c.RedisClient = rdb

	store, db, err := infrastructure.NewUserStore(ctx, cfg, l)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize user store: %w", err)
	}
	c.DB = db
	c.Store = store

	// Cache layer sits in front of the store only when Redis is available
	if rdb != nil && cfg.Redis.CacheTTL > 0 {
		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		c.Store = cached.NewUserRepository(store, userCache, l)
	}

	conn, err := infrastructure.NewRecSysConn(cfg, l)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize recommendation client: %w", err)
	}
	c.RecSysConn = conn

	promo := newPromoService(cfg, rdb, l)

	c.WebUC = webservice.New(c.Store, recsys.NewClient(conn, l), promo, l)

	if rdb != nil {
		c.RateLimiter = middleware.NewRateLimiter(
			rdb.Client,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	c.GinHandler = ginhandler.NewHandler(c.WebUC, l)

	return c, nil
}

func newPromoService(cfg *config.Config, rdb *redisclient.Client, l *zap.Logger) webservice.PromoService {
	if cfg.Mailer.Driver == config.MailerRedis && rdb != nil {
		l.Info("promo emails go to redis queue", zap.String("key", cfg.Mailer.QueueKey))
		return mailer.NewRedisQueue(rdb.Client, cfg.Mailer.QueueKey, l)
	}
	l.Info("promo emails are only logged")
	return mailer.NewLogMailer(l)
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RecSysConn != nil {
		if err := c.RecSysConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close recsys connection: %w", err))
		}
	}

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
