// Package config loads the application settings from a TOML file.
//
// A missing file is not an error: DefaultConfig is used. Keys absent from
// the file keep their default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/sheet"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "bono.toml"

// AppConfig is the whole configuration file.
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Bonus  BonusConfig  `toml:"bonus"`
	Export ExportConfig `toml:"export"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// SessionTTL is how long an untouched session is kept, e.g. "12h".
	SessionTTL   string `toml:"session_ttl"`
	ReapInterval string `toml:"reap_interval"`
}

// BonusConfig holds the values pre-filled when a session is configured
// without explicit lots.
type BonusConfig struct {
	DefaultProcess  string `toml:"default_process"`
	DefaultLots     string `toml:"default_lots"`
	DefaultGenetics string `toml:"default_genetics"`
	DefaultBudget   string `toml:"default_budget"`
}

// ExportConfig configures the payout workbook download.
type ExportConfig struct {
	FileName string `toml:"file_name"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			SessionTTL:     "12h",
			ReapInterval:   "10m",
		},
		Bonus: BonusConfig{
			DefaultProcess:  string(bonus.ProcessProduction),
			DefaultLots:     bonus.DefaultLots,
			DefaultGenetics: bonus.DefaultGenetics,
			DefaultBudget:   bonus.DefaultBudget.String(),
		},
		Export: ExportConfig{
			FileName: sheet.DefaultFileName,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg and validates the result.
func Parse(data []byte, cfg *AppConfig) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate checks that the bonus defaults can build a valid lot list.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if _, err := c.ReapInterval(); err != nil {
		return err
	}
	if _, err := bonus.ParseProcessType(c.Bonus.DefaultProcess); err != nil {
		return fmt.Errorf("bonus.default_process: %w", err)
	}
	if _, err := c.DefaultLots(); err != nil {
		return fmt.Errorf("bonus: %w", err)
	}
	return nil
}

// DefaultProcess returns the configured default process type.
func (c *AppConfig) DefaultProcess() bonus.ProcessType {
	p, err := bonus.ParseProcessType(c.Bonus.DefaultProcess)
	if err != nil {
		return bonus.ProcessProduction
	}
	return p
}

// DefaultLots builds the lots pre-filled from default_lots, each with the
// default genetics and budget.
func (c *AppConfig) DefaultLots() ([]bonus.Lot, error) {
	budget := bonus.DefaultBudget
	if c.Bonus.DefaultBudget != "" {
		b, err := bonus.ParseDecimal(c.Bonus.DefaultBudget)
		if err != nil {
			return nil, fmt.Errorf("default_budget %q: %w", c.Bonus.DefaultBudget, err)
		}
		budget = b
	}

	genetics := c.Bonus.DefaultGenetics
	if genetics == "" {
		genetics = bonus.DefaultGenetics
	}

	ids, err := bonus.ParseLotIDs(c.Bonus.DefaultLots)
	if err != nil {
		return nil, err
	}
	lots := make([]bonus.Lot, 0, len(ids))
	for _, id := range ids {
		lots = append(lots, bonus.NewLot(string(id), genetics, budget))
	}
	if err := bonus.ValidateLots(lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// SessionTTL returns the idle lifetime of a session.
func (c *AppConfig) SessionTTL() (time.Duration, error) {
	return positiveDuration("server.session_ttl", c.Server.SessionTTL)
}

// ReapInterval returns how often idle sessions are looked for.
func (c *AppConfig) ReapInterval() (time.Duration, error) {
	return positiveDuration("server.reap_interval", c.Server.ReapInterval)
}

func positiveDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, s)
	}
	return d, nil
}

// Addr returns the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// ExportFileName returns the configured download name.
func (c *AppConfig) ExportFileName() string {
	if c.Export.FileName == "" {
		return sheet.DefaultFileName
	}
	return c.Export.FileName
}
