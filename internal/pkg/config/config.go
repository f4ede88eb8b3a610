package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

const (
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development" validate:"oneof=development staging production test"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// SupabaseJWTSecret verifies access tokens reported by the shell.
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET" validate:"required"`
	// BackendBaseURL is where role profiles are looked up.
	BackendBaseURL string `env:"BACKEND_BASE_URL, default=http://127.0.0.1:5000" validate:"required,url"`
	// CacheBackend selects the durable actor slot.
	CacheBackend string `env:"CACHE_BACKEND, default=redis" validate:"oneof=redis mongo memory"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	LookupTimeout time.Duration `env:"SESSION_LOOKUP_TIMEOUT, default=10s" validate:"gt=0"`
	GuardTimeout  time.Duration `env:"SESSION_GUARD_TIMEOUT, default=15s" validate:"gt=0"`
	IdleWarning   time.Duration `env:"SESSION_IDLE_WARNING,  default=25m" validate:"gt=0"`
	IdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT,  default=30m" validate:"gtfield=IdleWarning"`
	LenientAdmin  bool          `env:"SESSION_LENIENT_ADMIN, default=false"`
	CacheTTL      time.Duration `env:"SESSION_CACHE_TTL,     default=0s"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database string        `env:"MONGO_DB,      default=casalinger"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

// Production reports whether the service runs with production settings.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig
// and validates it.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// MustLoad is Load for process startup.
func MustLoad() *Config {
	cfg, err := Load(context.Background())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &cfg, nil
}
