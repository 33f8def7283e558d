package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort       string        `env:"HTTP_PORT" envDefault:"8080"`
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"kanji-quiz.db"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"true"`
	CatalogPath    string        `env:"CATALOG_PATH"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	ResultCacheTTL time.Duration `env:"RESULT_CACHE_TTL" envDefault:"24h"`
	AnswerLimit    int           `env:"ANSWER_RATE_LIMIT" envDefault:"60"`
	AnswerWindow   time.Duration `env:"ANSWER_RATE_WINDOW" envDefault:"1m"`
	TokenSecret    string        `env:"SESSION_TOKEN_SECRET"`
	TokenTTL       time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"72h"`
	SMTPHost       string        `env:"SMTP_HOST"`
	SMTPPort       int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string        `env:"SMTP_USER"`
	SMTPPass       string        `env:"SMTP_PASS"`
	SMTPFrom       string        `env:"SMTP_FROM"`
	SMTPFromName   string        `env:"SMTP_FROM_NAME"`
	SMTPUseTLS     bool          `env:"SMTP_USE_TLS" envDefault:"false"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	OTelEnabled    bool          `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelService    string        `env:"OTEL_SERVICE_NAME" envDefault:"kanji-quiz"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for store driver %q", c.StoreDriver)
		}
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.AnswerLimit < 0 {
		return fmt.Errorf("ANSWER_RATE_LIMIT must not be negative")
	}
	return nil
}
