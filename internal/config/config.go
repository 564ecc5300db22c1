package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/kapu/santoral-go/internal/constants"
)

// Saints source adapters
const (
	SourceWikipedia = "wikipedia"
	SourceCalendar  = "calendar"
)

type Config struct {
	Storage    StorageConfig
	Sources    SourcesConfig
	HTTP       HTTPConfig
	Classifier ClassifierConfig
	Redis      RedisConfig
	Logging    LoggingConfig
}

type StorageConfig struct {
	DataDir      string `env:"SANTORAL_DATA_DIR"      envDefault:"data"`
	SaintsFile   string `env:"SANTORAL_SAINTS_FILE"   envDefault:"santos.csv"`
	ReadingsFile string `env:"SANTORAL_READINGS_FILE" envDefault:"evangelios.csv"`
	FailuresFile string `env:"SANTORAL_FAILURES_FILE" envDefault:"wikiproblematica.csv"`
	ImagesDir    string `env:"SANTORAL_IMAGES_DIR"    envDefault:"web/images"`
	BackupDir    string `env:"SANTORAL_BACKUP_DIR"    envDefault:"backups"`
}

type SourcesConfig struct {
	Saints          string `env:"SANTORAL_SOURCE"             envDefault:"wikipedia"`
	SaintsBaseURL   string `env:"SANTORAL_SAINTS_BASE_URL"    envDefault:"https://es.wikipedia.org/wiki"`
	CalendarBaseURL string `env:"SANTORAL_CALENDAR_BASE_URL"  envDefault:"https://calendariodesantos.com/santoral"`
	EncyclopediaAPI string `env:"SANTORAL_ENCYCLOPEDIA_API"   envDefault:"https://es.wikipedia.org/w/api.php"`
	ReadingsRSS     string `env:"SANTORAL_READINGS_RSS"       envDefault:"https://www.vaticannews.va/es/evangelio-de-hoy.rss.xml"`
	ReadingsDaily   string `env:"SANTORAL_READINGS_DAILY_URL" envDefault:"https://www.vaticannews.va/es/evangelio-de-hoy.html"`
	ReadingsBaseURL string `env:"SANTORAL_READINGS_BASE_URL"  envDefault:"https://bible.usccb.org/es/bible/lecturas"`
}

type HTTPConfig struct {
	Pacing    time.Duration `env:"SANTORAL_PACING"       envDefault:"1s"`
	Timeout   time.Duration `env:"SANTORAL_HTTP_TIMEOUT" envDefault:"10s"`
	UserAgent string        `env:"SANTORAL_USER_AGENT"`
}

type ClassifierConfig struct {
	// TablesFile overrides the embedded curated tables when set.
	TablesFile string `env:"SANTORAL_CLASSIFIER_TABLES"`
}

type RedisConfig struct {
	Host     string        `env:"REDIS_HOST"`
	Port     int           `env:"REDIS_PORT"         envDefault:"6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB"           envDefault:"0"`
	TTL      time.Duration `env:"SANTORAL_CACHE_TTL" envDefault:"168h"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	File  string `env:"LOG_FILE"  envDefault:"logs/santoral.log"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = constants.HTTPConfig.UserAgent
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return fmt.Errorf("SANTORAL_DATA_DIR is required")
	}
	if c.Sources.Saints != SourceWikipedia && c.Sources.Saints != SourceCalendar {
		return fmt.Errorf("SANTORAL_SOURCE must be %q or %q, got %q", SourceWikipedia, SourceCalendar, c.Sources.Saints)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("SANTORAL_HTTP_TIMEOUT must be positive")
	}
	c.HTTP.Pacing = ClampPacing(c.HTTP.Pacing)
	return nil
}

// ClampPacing keeps the delay between network-bound units inside the polite window.
func ClampPacing(d time.Duration) time.Duration {
	if d < constants.PacingConfig.Min {
		return constants.PacingConfig.Min
	}
	if d > constants.PacingConfig.Max {
		return constants.PacingConfig.Max
	}
	return d
}

func (c *Config) SaintsPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.SaintsFile)
}

func (c *Config) ReadingsPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.ReadingsFile)
}

func (c *Config) FailuresPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.FailuresFile)
}

func (c *Config) BackupPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.BackupDir)
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
