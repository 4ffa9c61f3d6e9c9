package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/account"
	"github.com/tendant/simple-blog/pkg/simpleblog/api"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	repomongo "github.com/tendant/simple-blog/pkg/simpleblog/repo/mongo"
	repopg "github.com/tendant/simple-blog/pkg/simpleblog/repo/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                "8080",
		Environment:         "development",
		DatabaseType:        "memory",
		MongoDatabase:       "simpleblog",
		DBMaxConns:          10,
		AutoMigrate:         true,
		SessionTTL:          24 * time.Hour,
		SignInRatePerMinute: 10,
		EnableEventLogging:  true,
	}
}

// ServerConfig represents server configuration for the blog service. Fields
// carry yaml tags for WithFile and env tags for WithEnv.
type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT"`
	Environment string `yaml:"environment" env:"ENVIRONMENT"` // development, production, testing

	// Database configuration
	DatabaseType  string `yaml:"database_type" env:"DATABASE_TYPE"` // "memory", "postgres", "mongo"
	DatabaseURL   string `yaml:"database_url" env:"DATABASE_URL"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE"`
	DBMaxConns    int32  `yaml:"db_max_conns" env:"DB_MAX_CONNS"`
	AutoMigrate   bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE"`

	// Session configuration
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`

	// Server options
	CascadeComments     bool `yaml:"cascade_comments" env:"CASCADE_COMMENTS"`
	SignInRatePerMinute int  `yaml:"signin_rate_per_minute" env:"SIGNIN_RATE_PER_MINUTE"`
	EnableEventLogging  bool `yaml:"enable_event_logging" env:"ENABLE_EVENT_LOGGING"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres", "mongo":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'mongo'")
	}

	if c.DatabaseType == "mongo" && c.MongoDatabase == "" {
		return errors.New("mongo_database is required when using mongo")
	}

	if c.Environment == "production" && c.JWTSecret == "" {
		return errors.New("jwt_secret is required in production")
	}

	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}

	if c.SignInRatePerMinute < 0 {
		return errors.New("signin_rate_per_minute must not be negative")
	}

	return nil
}

// Stores holds the repositories built from the configuration
type Stores struct {
	Repository simpleblog.Repository
	Users      simpleblog.UserRepository

	closers []func()
}

// Close releases database connections
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// BuildStores opens the configured database and returns its repositories
func (c *ServerConfig) BuildStores(ctx context.Context) (*Stores, error) {
	switch c.DatabaseType {
	case "memory":
		repo := memory.New()
		return &Stores{Repository: repo, Users: repo}, nil

	case "postgres":
		pool, err := c.NewPostgresPool(ctx)
		if err != nil {
			return nil, err
		}
		repo := repopg.NewWithPool(pool)
		if c.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return &Stores{Repository: repo, Users: repo, closers: []func(){pool.Close}}, nil

	case "mongo":
		client, err := repomongo.Connect(ctx, c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		disconnect := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		repo := repomongo.New(client.Database(c.MongoDatabase))
		if c.AutoMigrate {
			if err := repo.EnsureIndexes(ctx); err != nil {
				disconnect()
				return nil, fmt.Errorf("failed to create indexes: %w", err)
			}
		}
		return &Stores{Repository: repo, Users: repo, closers: []func(){disconnect}}, nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// NewPostgresPool creates a pgx pool for DatabaseURL and pings it
func (c *ServerConfig) NewPostgresPool(ctx context.Context) (*pgxpool.Pool, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if c.DBMaxConns > 0 {
		cfg.MaxConns = c.DBMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// BuildService creates a Service over stores
func (c *ServerConfig) BuildService(stores *Stores, logger *slog.Logger) (simpleblog.Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	options := []simpleblog.Option{
		simpleblog.WithRepository(stores.Repository),
		simpleblog.WithLogger(logger),
		simpleblog.WithCommentCascade(c.CascadeComments),
	}
	if c.EnableEventLogging {
		options = append(options, simpleblog.WithEventSink(simpleblog.NewLoggingEventSink(logger)))
	}

	return simpleblog.New(options...)
}

// BuildAccounts creates the account service over stores
func (c *ServerConfig) BuildAccounts(stores *Stores, logger *slog.Logger) *account.Service {
	if logger == nil {
		logger = slog.Default()
	}
	return account.New(stores.Users, account.WithLogger(logger))
}

// BuildSession creates the session provider. Without a configured secret a
// random one is generated, so sessions do not survive a restart.
func (c *ServerConfig) BuildSession() *api.Session {
	secret := c.JWTSecret
	if secret == "" {
		slog.Warn("JWT_SECRET not set, using a random session secret")
		secret = uuid.NewString()
	}
	return api.NewSession(secret, c.SessionTTL)
}

// APIOptions assembles everything the HTTP surface needs
func (c *ServerConfig) APIOptions(stores *Stores, logger *slog.Logger) (api.Options, error) {
	service, err := c.BuildService(stores, logger)
	if err != nil {
		return api.Options{}, fmt.Errorf("failed to build service: %w", err)
	}

	return api.Options{
		Service:             service,
		Accounts:            c.BuildAccounts(stores, logger),
		Session:             c.BuildSession(),
		Logger:              logger,
		SignInRatePerMinute: c.SignInRatePerMinute,
	}, nil
}

// WithEnv overrides configuration from environment variables. Unset
// variables leave the current value in place.
//
//	PORT, ENVIRONMENT
//	DATABASE_TYPE (memory|postgres|mongo), DATABASE_URL, MONGO_DATABASE,
//	DB_MAX_CONNS, AUTO_MIGRATE
//	JWT_SECRET, SESSION_TTL (e.g. "24h")
//	CASCADE_COMMENTS, SIGNIN_RATE_PER_MINUTE, ENABLE_EVENT_LOGGING
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithFile reads a YAML, JSON, TOML or .env file. Environment variables
// still take precedence over file values.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}
}
