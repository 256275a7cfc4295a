package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/marginpilot/logging"
	"github.com/rustyeddy/marginpilot/risk"
)

// Config is everything the CLI and the server need at start-up.
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Quotes  QuotesConfig  `json:"quotes" yaml:"quotes"`
	OCR     OCRConfig     `json:"ocr" yaml:"ocr"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// AccountConfig holds the alert thresholds evaluated against margin status.
type AccountConfig struct {
	WarningUsageRate  float64 `json:"warning_usage_rate" yaml:"warning_usage_rate"`
	DangerUsageRate   float64 `json:"danger_usage_rate" yaml:"danger_usage_rate"`
	MaxPositionWeight float64 `json:"max_position_weight" yaml:"max_position_weight"`
	MaxDayTrades      int     `json:"max_day_trades" yaml:"max_day_trades"`
	PDTMinEquity      float64 `json:"pdt_min_equity" yaml:"pdt_min_equity"`
	Timezone          string  `json:"timezone" yaml:"timezone"` // trade dates and expirations
}

type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path" env:"MARGINPILOT_DB"`
}

type QuotesConfig struct {
	Sources       []string      `json:"sources" yaml:"sources"` // tried in order: "yahoo", "finnhub"
	YahooURL      string        `json:"yahoo_url,omitempty" yaml:"yahoo_url,omitempty"`
	FinnhubURL    string        `json:"finnhub_url,omitempty" yaml:"finnhub_url,omitempty"`
	FinnhubAPIKey string        `json:"-" yaml:"-" env:"FINNHUB_API_KEY"`
	CacheTTL      time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	Timeout       time.Duration `json:"timeout" yaml:"timeout"`
	MaxRetries    int           `json:"max_retries" yaml:"max_retries"`
}

type OCRConfig struct {
	BaseURL string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model   string        `json:"model" yaml:"model"`
	APIKey  string        `json:"-" yaml:"-" env:"OPENAI_API_KEY"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" env:"MARGINPILOT_ADDR"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" env:"MARGINPILOT_LOG_LEVEL"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
// on top of the defaults, then applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads path when it exists and otherwise starts from the defaults.
// Environment overrides apply either way.
func Load(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return LoadFromFile(path)
		}
	}

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays variables that are set; unset ones keep file values.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
// API keys are never written.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	a := c.Account
	if a.WarningUsageRate <= 0 || a.WarningUsageRate >= 1 {
		return fmt.Errorf("account.warning_usage_rate must be between 0 and 1")
	}
	if a.DangerUsageRate <= a.WarningUsageRate || a.DangerUsageRate >= 1 {
		return fmt.Errorf("account.danger_usage_rate must be between warning_usage_rate and 1")
	}
	if a.MaxPositionWeight <= 0 || a.MaxPositionWeight > 1 {
		return fmt.Errorf("account.max_position_weight must be in (0, 1]")
	}
	if a.MaxDayTrades <= 0 {
		return fmt.Errorf("account.max_day_trades must be positive")
	}
	if a.PDTMinEquity < 0 {
		return fmt.Errorf("account.pdt_min_equity must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("account.timezone: %w", err)
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if len(c.Quotes.Sources) == 0 {
		return fmt.Errorf("quotes.sources needs at least one source")
	}
	for _, s := range c.Quotes.Sources {
		if s != "yahoo" && s != "finnhub" {
			return fmt.Errorf("unknown quote source: %s", s)
		}
	}
	if c.Quotes.CacheTTL < 0 || c.Quotes.Timeout < 0 || c.Quotes.MaxRetries < 0 {
		return fmt.Errorf("quotes cache_ttl, timeout and max_retries must not be negative")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Location resolves Account.Timezone; empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Account.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Account.Timezone)
}

// Policy turns the account thresholds into a risk policy.
func (c *Config) Policy() risk.Policy {
	p := risk.DefaultPolicy()
	p.WarningUsageRate = c.Account.WarningUsageRate
	p.DangerUsageRate = c.Account.DangerUsageRate
	p.MaxPositionWeight = c.Account.MaxPositionWeight
	p.MaxDayTrades = c.Account.MaxDayTrades
	p.PDTMinEquity = c.Account.PDTMinEquity
	return p
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	p := risk.DefaultPolicy()
	return &Config{
		Account: AccountConfig{
			WarningUsageRate:  p.WarningUsageRate,
			DangerUsageRate:   p.DangerUsageRate,
			MaxPositionWeight: p.MaxPositionWeight,
			MaxDayTrades:      p.MaxDayTrades,
			PDTMinEquity:      p.PDTMinEquity,
		},
		Journal: JournalConfig{
			DBPath: "./marginpilot.db",
		},
		Quotes: QuotesConfig{
			Sources:    []string{"yahoo", "finnhub"},
			CacheTTL:   60 * time.Second,
			Timeout:    10 * time.Second,
			MaxRetries: 2,
		},
		OCR: OCRConfig{
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
