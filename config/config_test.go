package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bono-engine/bonus"
	"github.com/warp/bono-engine/sheet"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, sheet.DefaultFileName, cfg.ExportFileName())
	assert.Equal(t, bonus.ProcessProduction, cfg.DefaultProcess())

	ttl, err := cfg.SessionTTL()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, ttl)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	// GIVEN: a file that only sets the port and the lots
	path := filepath.Join(t.TempDir(), "bono.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090

[bonus]
default_process = "levante"
default_lots = "301-302"
default_genetics = "cobb"
default_budget = "750.50"
`), 0o644))

	// WHEN
	cfg, err := Load(path)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DefaultConfig().Server.AllowedOrigins, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, bonus.ProcessRearing, cfg.DefaultProcess())

	lots, err := cfg.DefaultLots()
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, bonus.LotID("302"), lots[1].ID)
	assert.Equal(t, "COBB", lots[1].Genetics)
	assert.True(t, decimal.RequireFromString("750.50").Equal(lots[1].Budget))
}

func TestDefaultLots_FromDefaults(t *testing.T) {
	lots, err := DefaultConfig().DefaultLots()
	require.NoError(t, err)

	require.Len(t, lots, 3)
	for _, l := range lots {
		assert.Equal(t, bonus.DefaultGenetics, l.Genetics)
		assert.True(t, bonus.DefaultBudget.Equal(l.Budget))
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad syntax", "[server\nport = 1"},
		{"port out of range", "[server]\nport = 70000"},
		{"unknown process", "[bonus]\ndefault_process = \"ENGORDE\""},
		{"duplicate lots", "[bonus]\ndefault_lots = \"211-211\""},
		{"no lots", "[bonus]\ndefault_lots = \" - \""},
		{"bad ttl", "[server]\nsession_ttl = \"forever\""},
		{"zero interval", "[server]\nreap_interval = \"0s\""},
		{"bad budget", "[bonus]\ndefault_budget = \"mil\""},
		{"negative budget", "[bonus]\ndefault_budget = \"-1\""},
		{"budget exponent", "[bonus]\ndefault_budget = \"1e2000000000\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Parse([]byte(tt.toml), DefaultConfig())
			assert.Error(t, err)
		})
	}
}

func TestLoad_UnreadablePath(t *testing.T) {
	// A directory cannot be read as a file.
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
