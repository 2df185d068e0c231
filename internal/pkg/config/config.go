package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT        JWTConfig
	Store      StoreConfig
	Mongo      MongoConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Purchase   PurchaseConfig
	SuperAdmin SuperAdminConfig
}

type JWTConfig struct {
	Secret   string        `env:"JWT_SECRET,   required"`
	Issuer   string        `env:"JWT_ISSUER,   default=library-api"`
	Audience string        `env:"JWT_AUDIENCE, default=library-clients"`
	Expiry   time.Duration `env:"JWT_EXPIRY,   default=60m"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=library"`
}

type PostgresConfig struct {
	DSN      string `env:"POSTGRES_DSN,       default=postgres://localhost:5432/library"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS, default=10"`
}

// RedisConfig enables purchase idempotency when Addr is set.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type PurchaseConfig struct {
	Policy  string `env:"PURCHASE_POLICY,  default=any"`
	Workers int    `env:"PURCHASE_WORKERS, default=0"`
}

type SuperAdminConfig struct {
	Username string `env:"SUPERADMIN_USERNAME"`
	Password string `env:"SUPERADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
// It panics on unparsable or missing required values.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads and validates configuration from an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.Store.Driver)
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY: must be positive, got %s", c.JWT.Expiry)
	}
	if (c.SuperAdmin.Username == "") != (c.SuperAdmin.Password == "") {
		return fmt.Errorf("SUPERADMIN_USERNAME and SUPERADMIN_PASSWORD must be set together")
	}
	return nil
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
