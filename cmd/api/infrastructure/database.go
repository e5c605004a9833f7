package infrastructure

import (
	"context"
	"fmt"
	"time"

	"andrew-web-services/internal/adapter/db/memory"
	"andrew-web-services/internal/adapter/db/sqlstore"
	"andrew-web-services/internal/adapter/repository/cached"
	"andrew-web-services/internal/config"
	"andrew-web-services/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewUserStore opens the user store selected by DB_DRIVER and seeds it with
// SEED_USERS. The returned *gorm.DB is nil for the memory driver.
func NewUserStore(ctx context.Context, cfg *config.Config, l *zap.Logger) (cached.Store, *gorm.DB, error) {
	seeds, err := cfg.DB.Seeds()
	if err != nil {
		return nil, nil, err
	}

	if cfg.DB.Driver == config.DriverMemory {
		store := memory.NewInMemoryDatabase(seeds...)
		l.Info("using in-memory user store", zap.Int("users", store.Len()))
		return store, nil, nil
	}

	db, err := NewDatabase(cfg, l)
	if err != nil {
		return nil, nil, err
	}

	repo := sqlstore.NewUserRepo(db, l)
	if err := repo.Migrate(ctx); err != nil {
		_ = CloseDatabase(db)
		return nil, nil, err
	}

	for i := range seeds {
		if _, err := repo.Save(ctx, &seeds[i]); err != nil {
			_ = CloseDatabase(db)
			return nil, nil, fmt.Errorf("failed to seed user %q: %w", seeds[i].Name, err)
		}
	}
	if len(seeds) > 0 {
		l.Info("seeded users", zap.Int("count", len(seeds)))
	}

	return repo, db, nil
}

// NewDatabase creates a new database connection with GORM configuration
func NewDatabase(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.NewGormLogger(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)

	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		dialector = pgdriver.Open(cfg.DB.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DB.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DB.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpen := cfg.DB.MaxOpenConns
	if cfg.DB.Driver == config.DriverSQLite {
		// sqlite allows a single writer
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(cfg.DB.MaxIdleConns, maxOpen))
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DB.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DB.ConnMaxIdleTime) * time.Second)

	l.Info("database connected successfully",
		zap.String("driver", cfg.DB.Driver),
		zap.Int("max_open_conns", maxOpen),
		zap.Int("max_idle_conns", cfg.DB.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.DB.ConnMaxLifetime),
		zap.Int("conn_max_idle_time_seconds", cfg.DB.ConnMaxIdleTime),
	)

	return db, nil
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
