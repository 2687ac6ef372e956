package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Crawl.RequestTimeout)
	assert.Equal(t, 20, cfg.Crawl.RequestCeiling)
	assert.Equal(t, 60*time.Second, cfg.Crawl.Cooldown)
	assert.Equal(t, time.Second, cfg.Crawl.JitterMin)
	assert.Equal(t, 3*time.Second, cfg.Crawl.JitterMax)
	assert.Equal(t, 10, cfg.Crawl.MaxConns)
	assert.Equal(t, 2, cfg.Crawl.MaxConnsPerHost)
	assert.Equal(t, DefaultStorePath(), cfg.Store.Path)
	assert.Equal(t, "oppscout.db", filepath.Base(cfg.Store.Path))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPPSCOUT_PORT", "9090")
	t.Setenv("OPPSCOUT_COOLDOWN", "2s")
	t.Setenv("OPPSCOUT_API_KEYS", " a , b ,,")
	t.Setenv("OPPSCOUT_AUTH_ENABLED", "false")
	t.Setenv("OPPSCOUT_REQUEST_CEILING", "not-a-number")

	cfg := Load()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Crawl.Cooldown)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, 20, cfg.Crawl.RequestCeiling, "invalid values fall back to the default")
}

func TestDefaultRegistry_IsValid(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, ValidateRegistry(reg))

	reg[0].ID = "mutated"
	assert.Equal(t, "screen_australia", DefaultRegistry()[0].ID)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - id: local_council
    url: https://council.example.org
    description: Local council grants
    endpoints:
      - /grants
      - /grants/arts
  - id: paused
    url: https://paused.example.org
    endpoints: [/funding]
    disabled: true
`), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg, 2)
	assert.Equal(t, "local_council", reg[0].ID)
	assert.Equal(t, "https://council.example.org", reg[0].BaseURL)
	assert.Equal(t, []string{"/grants", "/grants/arts"}, reg[0].Endpoints)
	assert.True(t, reg[0].Enabled())
	assert.False(t, reg[1].Enabled())
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrRegistryNotFound)

	tests := map[string]string{
		"empty":        "sources: []\n",
		"no id":        "sources:\n  - url: https://a.example\n    endpoints: [/]\n",
		"duplicate":    "sources:\n  - id: a\n    url: https://a.example\n    endpoints: [/]\n  - id: a\n    url: https://b.example\n    endpoints: [/]\n",
		"no endpoints": "sources:\n  - id: a\n    url: https://a.example\n",
		"relative url": "sources:\n  - id: a\n    url: /grants\n    endpoints: [/]\n",
		"bad yaml":     "sources: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sources.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadRegistry(path)
			assert.Error(t, err)
		})
	}
}

func TestSelectSources(t *testing.T) {
	reg := DefaultRegistry()

	all, err := SelectSources(reg, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(reg))

	got, err := SelectSources(reg, []string{"vicscreen", "screen_australia"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "screen_australia", got[0].ID, "registry order is kept")
	assert.Equal(t, "vicscreen", got[1].ID)

	_, err = SelectSources(reg, []string{"vicscreen", "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}
