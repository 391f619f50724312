package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultVerifyToken = "tiffin_demo_secret"

	StoreFirebase = "firebase"
	StoreBolt     = "bolt"
)

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`   // trace|debug|info|warn|error
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json|console
}

// Config is built once at startup and never mutated afterwards.
type Config struct {
	StoreBaseURL string `env:"FB_DB_URL"`
	StoreAuth    string `env:"FB_DB_SECRET"`
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"firebase"`
	DataDir      string `env:"DATA_DIR" envDefault:"."`

	WAAPIBase       string `env:"WA_API_BASE" envDefault:"https://graph.facebook.com/v21.0"`
	WAPhoneNumberID string `env:"PHONE_ID"`
	WAAccessToken   string `env:"META_TOKEN"`
	WAVerifyToken   string `env:"WA_VERIFY_TOKEN" envDefault:"tiffin_demo_secret"`
	WAAppSecret     string `env:"WA_APP_SECRET"`

	AdminToken string `env:"ADMIN_TOKEN"`
	Port       int    `env:"PORT" envDefault:"10000"`

	Log LogConfig
}

func Load() (*Config, error) {
	// .env is optional; in production the vars are already set
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}

	cfg.StoreBaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.StoreBaseURL), "/")
	cfg.WAAPIBase = strings.TrimSuffix(strings.TrimSpace(cfg.WAAPIBase), "/")
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	switch cfg.StoreDriver {
	case StoreFirebase, StoreBolt:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreFirebase, StoreBolt)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT %d out of range", cfg.Port)
	}

	return &cfg, nil
}

// Warnings lists required settings that are missing. The process still
// starts; the affected deliveries fail and get logged.
func (c *Config) Warnings() []string {
	var missing []string
	for _, req := range []struct {
		name, val string
	}{
		{"FB_DB_URL", c.StoreBaseURL},
		{"META_TOKEN", c.WAAccessToken},
		{"PHONE_ID", c.WAPhoneNumberID},
	} {
		if req.name == "FB_DB_URL" && c.StoreDriver == StoreBolt {
			continue
		}
		if req.val == "" {
			missing = append(missing, fmt.Sprintf("required env var %s is not set", req.name))
		}
	}
	return missing
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
