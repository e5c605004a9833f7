package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"andrew-web-services/internal/domain/user"
)

// Database drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Mailer drivers.
const (
	MailerLog   = "log"
	MailerRedis = "redis"
)

// Config holds all configuration for the application
type Config struct {
	DB        DatabaseConfig
	Redis     RedisConfig
	App       AppConfig
	RecSys    RecSysConfig
	Mailer    MailerConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
}

// DatabaseConfig holds configuration for the user store
type DatabaseConfig struct {
	Driver          string `mapstructure:"DB_DRIVER" validate:"oneof=memory sqlite postgres"`
	Host            string `mapstructure:"DB_HOST" validate:"required_if=Driver postgres"`
	Port            string `mapstructure:"DB_PORT" validate:"required_if=Driver postgres"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME" validate:"required_if=Driver postgres"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	SQLitePath      string `mapstructure:"DB_SQLITE_PATH" validate:"required_if=Driver sqlite"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS" validate:"gte=1"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME_SECONDS" validate:"gte=0"`
	ConnMaxIdleTime int    `mapstructure:"DB_CONN_MAX_IDLE_TIME_SECONDS" validate:"gte=0"`
	SeedUsers       string `mapstructure:"SEED_USERS"`
}

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Enabled     bool   `mapstructure:"REDIS_ENABLED"`
	Host        string `mapstructure:"REDIS_HOST" validate:"required_if=Enabled true"`
	Port        string `mapstructure:"REDIS_PORT" validate:"required_if=Enabled true"`
	Password    string `mapstructure:"REDIS_PASSWORD"`
	DB          int    `mapstructure:"REDIS_DB" validate:"gte=0"`
	MaxRetries  int    `mapstructure:"REDIS_MAX_RETRIES" validate:"gte=0"`
	PoolSize    int    `mapstructure:"REDIS_POOL_SIZE" validate:"gte=1"`
	MinIdleConn int    `mapstructure:"REDIS_MIN_IDLE_CONN" validate:"gte=0"`
	CacheTTL    int    `mapstructure:"REDIS_CACHE_TTL_SECONDS" validate:"gte=0"`
}

// AppConfig holds configuration for the application servers
type AppConfig struct {
	GRPCPort               string `mapstructure:"GRPC_PORT" validate:"required,numeric"`
	HTTPPort               string `mapstructure:"HTTP_PORT" validate:"required,numeric,nefield=GRPCPort"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" validate:"gte=1"`
}

// RecSysConfig holds configuration for the recommendation engine client
type RecSysConfig struct {
	Addr string `mapstructure:"RECSYS_ADDR" validate:"required,hostname_port"`
}

// MailerConfig holds configuration for promo email delivery
type MailerConfig struct {
	Driver   string `mapstructure:"MAILER_DRIVER" validate:"oneof=log redis"`
	QueueKey string `mapstructure:"MAILER_QUEUE_KEY"`
}

// RateLimitConfig holds configuration for request rate limiting
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	BurstCapacity     int     `mapstructure:"RATE_LIMIT_BURST" validate:"gte=1"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	Format           string  `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS" validate:"gte=0"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME" validate:"required"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads app.env from path, then lets environment variables override it.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	config.DB.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	config.DB.Host = v.GetString("DB_HOST")
	config.DB.Port = v.GetString("DB_PORT")
	config.DB.User = v.GetString("DB_USER")
	config.DB.Password = v.GetString("DB_PASSWORD")
	config.DB.Name = v.GetString("DB_NAME")
	config.DB.SSLMode = v.GetString("DB_SSLMODE")
	config.DB.SQLitePath = v.GetString("DB_SQLITE_PATH")
	config.DB.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME_SECONDS")
	config.DB.ConnMaxIdleTime = v.GetInt("DB_CONN_MAX_IDLE_TIME_SECONDS")
	config.DB.SeedUsers = v.GetString("SEED_USERS")

	config.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")
	config.Redis.CacheTTL = v.GetInt("REDIS_CACHE_TTL_SECONDS")

	config.App.GRPCPort = v.GetString("GRPC_PORT")
	config.App.HTTPPort = v.GetString("HTTP_PORT")
	config.App.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.RecSys.Addr = v.GetString("RECSYS_ADDR")

	config.Mailer.Driver = strings.ToLower(v.GetString("MAILER_DRIVER"))
	config.Mailer.QueueKey = v.GetString("MAILER_QUEUE_KEY")

	config.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	config.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.BurstCapacity = v.GetInt("RATE_LIMIT_BURST")

	config.Logger.Level = strings.ToLower(v.GetString("LOG_LEVEL"))
	config.Logger.Format = strings.ToLower(v.GetString("LOG_FORMAT"))
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", DriverMemory)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "andrew_web_services")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "andrew.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)
	v.SetDefault("SEED_USERS", "")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	v.SetDefault("REDIS_CACHE_TTL_SECONDS", 300)

	v.SetDefault("GRPC_PORT", "50051")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.SetDefault("RECSYS_ADDR", "localhost:50061")

	v.SetDefault("MAILER_DRIVER", MailerLog)
	v.SetDefault("MAILER_QUEUE_KEY", "promo:outbox")

	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	if v.GetString("APP_ENV") == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "andrew-web-services")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks field constraints and the rules spanning sections.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if !c.Redis.Enabled {
		if c.Mailer.Driver == MailerRedis {
			return errors.New("invalid config: MAILER_DRIVER=redis requires REDIS_ENABLED=true")
		}
		if c.RateLimit.Enabled {
			return errors.New("invalid config: RATE_LIMIT_ENABLED=true requires REDIS_ENABLED=true")
		}
	}

	if _, err := c.DB.Seeds(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// DSN returns the PostgreSQL Data Source Name
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// Seeds parses SEED_USERS, a comma separated list of name:pin pairs such as
// "Scotty:17214,Uhura:4242".
func (c *DatabaseConfig) Seeds() ([]user.User, error) {
	if strings.TrimSpace(c.SeedUsers) == "" {
		return nil, nil
	}

	var users []user.User
	seen := make(map[string]struct{})
	for _, pair := range strings.Split(c.SeedUsers, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, pinStr, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("SEED_USERS entry %q is not name:pin", pair)
		}
		pin, err := strconv.Atoi(strings.TrimSpace(pinStr))
		if err != nil {
			return nil, fmt.Errorf("SEED_USERS entry %q has a non-numeric pin", pair)
		}
		if !user.ValidPIN(pin) {
			return nil, fmt.Errorf("SEED_USERS entry %q has a pin out of range", pair)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("SEED_USERS lists %q twice", name)
		}
		seen[name] = struct{}{}

		users = append(users, user.User{Name: name, PIN: pin})
	}
	return users, nil
}
