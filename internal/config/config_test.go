package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
sync:
  symbols: [btcusdt]
  intervals: [1d]
  date_from: "2021-01-01"
  date_to: "2021-01-03"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "data/klinesync.db", cfg.Store.Path)
	assert.Equal(t, "https://api.binance.com", cfg.Binance.RESTBaseURL)
	assert.Equal(t, 1000, cfg.Binance.PageLimit)
	assert.Equal(t, 3, cfg.Binance.RetryAttempts)
	assert.Equal(t, 1, cfg.Sync.MaxConcurrent)
	// symbol 统一大写
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Sync.Symbols)
}

func TestLoadRejectsMissingSymbols(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", `
sync:
  intervals: [1d]
  date_from: "2021-01-01"
  date_to: "2021-01-03"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbols")
}

func TestLoadRejectsUnknownInterval(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", `
sync:
  symbols: [BTCUSDT]
  intervals: [2d]
  date_from: "2021-01-01"
  date_to: "2021-01-03"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intervals")
}

func TestLoadRejectsReversedDates(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", `
sync:
  symbols: [BTCUSDT]
  intervals: [1d]
  date_from: "2021-01-03"
  date_to: "2021-01-01"
`))
	assert.Error(t, err)
}

func TestLoadRejectsOversizedPageLimit(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", validYAML+`
binance:
  page_limit: 1500
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_limit")
}

func TestLoadParamsFileOverridesSyncSection(t *testing.T) {
	dir := t.TempDir()
	paramsPath := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(paramsPath, []byte(`{
  "symbols": ["ETHUSDT"],
  "intervals": ["1w"],
  "date_from": "2022-05-01",
  "date_to": "2022-05-31"
}`), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
sync:
  symbols: [BTCUSDT]
  intervals: [1d]
  date_from: "2021-01-01"
  date_to: "2021-01-03"
  params_file: `+paramsPath+`
`), 0o644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETHUSDT"}, cfg.Sync.Symbols)
	assert.Equal(t, []string{"1w"}, cfg.Sync.Intervals)
	assert.Equal(t, "2022-05-01", cfg.Sync.DateFrom)
	assert.Equal(t, "2022-05-31", cfg.Sync.DateTo)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
