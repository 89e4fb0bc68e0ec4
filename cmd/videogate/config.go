package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"

	"github.com/sendrec/videogate/internal/gate"
	"github.com/sendrec/videogate/internal/i18n"
	"github.com/sendrec/videogate/internal/pin"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	SessionSecret  string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`

	PinHash             string `env:"PIN_HASH"`
	MaxAttempts         int    `env:"MAX_ATTEMPTS" envDefault:"3"`
	LockoutURL          string `env:"LOCKOUT_URL" envDefault:"red-ping.html"`
	MaxConcurrentChecks int    `env:"MAX_CONCURRENT_CHECKS"`

	UnlockRate  float64 `env:"UNLOCK_RATE" envDefault:"0.5"`
	UnlockBurst int     `env:"UNLOCK_BURST" envDefault:"5"`

	ManifestURL  string `env:"MANIFEST_URL"`
	ManifestKey  string `env:"MANIFEST_KEY"`
	ManifestFile string `env:"MANIFEST_FILE" envDefault:"videos.json"`
	MediaDir     string `env:"MEDIA_DIR"`

	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3PublicEndpoint string `env:"S3_PUBLIC_ENDPOINT"`
	S3Bucket         string `env:"S3_BUCKET"`
	S3AccessKey      string `env:"S3_ACCESS_KEY"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3Region         string `env:"S3_REGION" envDefault:"eu-central-1"`
	S3Prefix         string `env:"S3_PREFIX"`

	GeoIPDBPath    string `env:"GEOIP_DB_PATH"`
	DefaultLang    string `env:"DEFAULT_LANG" envDefault:"ar"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.PinHash == "" {
		cfg.PinHash = pin.DefaultReferenceDigest
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := pin.ValidateDigest(c.PinHash); err != nil {
		return fmt.Errorf("PIN_HASH: %w", err)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("MAX_ATTEMPTS must be positive, got %d", c.MaxAttempts)
	}
	if c.UnlockRate <= 0 || c.UnlockBurst <= 0 {
		return fmt.Errorf("UNLOCK_RATE and UNLOCK_BURST must be positive")
	}
	if c.ManifestKey != "" && c.S3Bucket == "" {
		return fmt.Errorf("MANIFEST_KEY requires S3_BUCKET")
	}
	if _, ok := i18n.ParseTag(c.DefaultLang); !ok {
		return fmt.Errorf("DEFAULT_LANG %q is not supported", c.DefaultLang)
	}
	return nil
}

func (c Config) gateConfig() gate.Config {
	return gate.Config{MaxAttempts: c.MaxAttempts, LockoutURL: c.LockoutURL}
}

func (c Config) defaultLanguage() language.Tag {
	tag, _ := i18n.ParseTag(c.DefaultLang)
	return tag
}

func (c Config) manifestSource() string {
	switch {
	case c.ManifestURL != "":
		return "url"
	case c.ManifestKey != "":
		return "object"
	default:
		return "file"
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
