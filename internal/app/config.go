package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the terminal configuration, loadable from environment
// variables (POS_ prefix) or YAML config files. Flags belong to the CLI.
type Config struct {
	BaseURL           string `env:"BASE_URL" yaml:"base_url" default:"http://localhost:8080" usage:"Backend base URL"`
	SessionDB         string `env:"SESSION_DB" yaml:"session_db" usage:"Local session database path (default: $XDG_STATE_HOME/pos/pos.db)"`
	LowStockThreshold int    `env:"LOW_STOCK_THRESHOLD" yaml:"low_stock_threshold" default:"10" usage:"Remaining units at or below which stock is reported low"`
	PageSize          int    `env:"PAGE_SIZE" yaml:"page_size" default:"20" usage:"Rows per page on list screens"`
	HTTP              HTTPConfig
	Breaker           BreakerConfig
	Dashboard         DashboardConfig
	Notice            NoticeConfig
	Format            FormatConfig
	Health            HealthConfig
}

// HTTPConfig controls the backend client.
type HTTPConfig struct {
	Timeout   time.Duration `default:"15s" usage:"Per-request timeout"`
	UserAgent string        `default:"brew-pos" usage:"User-Agent header"`
}

// BreakerConfig controls the backend circuit breaker.
type BreakerConfig struct {
	Failures uint32        `default:"5" usage:"Consecutive failures that open the breaker"`
	Cooldown time.Duration `default:"30s" usage:"How long the breaker stays open"`
}

// DashboardConfig controls the dashboard screen.
type DashboardConfig struct {
	Refresh     time.Duration `default:"2m" usage:"Dashboard refresh interval"`
	TopProducts int           `default:"5" usage:"Best sellers shown"`
	RecentSales int           `default:"10" usage:"Recent sales shown"`
}

// NoticeConfig controls transient notices.
type NoticeConfig struct {
	TTL time.Duration `default:"3s" usage:"How long a notice stays visible"`
}

// FormatConfig controls money and date display.
type FormatConfig struct {
	Currency string `default:"PHP" usage:"ISO 4217 currency code"`
	Symbol   string `default:"₱" usage:"Currency symbol prefix"`
	Locale   string `default:"en-PH" usage:"BCP 47 locale for digit grouping"`
	TimeZone string `usage:"IANA time zone for dates (default: local)"`
}

// HealthConfig controls the connectivity monitor.
type HealthConfig struct {
	Interval time.Duration `default:"10s" usage:"Probe interval"`
	Timeout  time.Duration `default:"5s" usage:"Probe timeout"`
}

// LoadConfig loads configuration from environment variables and the first
// YAML file found among extra, ./pos.yaml and the user config directory.
func LoadConfig(extra ...string) (*Config, error) {
	files := append([]string{}, extra...)
	files = append(files, "pos.yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, "pos", "config.yaml"))
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownFields: true,
		AllowUnknownEnvs:   true,
		EnvPrefix:          "POS",
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills settings whose defaults depend on the environment.
func (c *Config) applyDefaults() {
	if c.SessionDB == "" {
		c.SessionDB = defaultStatePath("pos.db")
	}
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("backend URL is required: set POS_BASE_URL or base_url in pos.yaml")
	case c.LowStockThreshold < 0:
		return errors.New("low stock threshold must not be negative")
	case c.PageSize < 1:
		return errors.New("page size must be positive")
	case c.Dashboard.Refresh <= 0:
		return errors.New("dashboard refresh interval must be positive")
	}
	return nil
}

// defaultStatePath returns name under $XDG_STATE_HOME/pos, falling back to
// ~/.local/state/pos and then the working directory.
func defaultStatePath(name string) string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "pos", name)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "pos", name)
	}
	return name
}
