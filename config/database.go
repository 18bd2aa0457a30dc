package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"missioncontrol"`
	Password string `env:"PASSWORD" envDefault:"missioncontrol"`
	Name     string `env:"NAME"     envDefault:"missioncontrol"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig contains cache configuration (Redis-based).
type CacheConfig struct {
	// ProviderTTL is the TTL for live provider responses cached between
	// requests (mail folder counts, etc.).
	ProviderTTL time.Duration `env:"CACHE_PROVIDER_TTL" envDefault:"30s"`

	// FillTimeout bounds how long a request waits for another request's
	// in-flight cache fill before giving up.
	FillTimeout time.Duration `env:"CACHE_FILL_TIMEOUT" envDefault:"30s"`
}
