package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("ADMINPANEL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.Equal(t, 10, cfg.UI.PageSize)
	require.Equal(t, 300*time.Millisecond, cfg.UI.Debounce)
	require.Equal(t, 300*time.Millisecond, cfg.UI.ModalExitDelay)
	require.Equal(t, 30*time.Second, cfg.UI.ConfirmTimeout)
	require.Equal(t, []string{"*"}, cfg.DevAPI.CORSOrigins)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "https://admin.example.com"
timeout = "3s"

[ui]
page_size = 25
timezone = "Australia/Melbourne"
`), 0o600))
	t.Setenv("ADMINPANEL_CONFIG", path)
	t.Setenv("ADMINPANEL_UI_DEBOUNCE", "50ms")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://admin.example.com", cfg.API.BaseURL)
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.Equal(t, 25, cfg.UI.PageSize)
	require.Equal(t, 50*time.Millisecond, cfg.UI.Debounce)

	loc, err := cfg.UI.Location()
	require.NoError(t, err)
	require.Equal(t, "Australia/Melbourne", loc.String())
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nbase_url ="), 0o600))
	t.Setenv("ADMINPANEL_CONFIG", path)

	_, err := Load()
	require.ErrorContains(t, err, "read config")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv("ADMINPANEL_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.API.BaseURL = "http://10.0.0.5:9000"
	cfg.API.Profile = "staging"
	cfg.API.Token = "never-written"
	cfg.UI.PageSize = 50
	require.NoError(t, Save(cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "never-written")

	back, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:9000", back.API.BaseURL)
	require.Equal(t, "staging", back.API.Profile)
	require.Equal(t, 50, back.UI.PageSize)
	require.Equal(t, cfg.UI.ConfirmTimeout, back.UI.ConfirmTimeout)
}

func TestLocationFallsBack(t *testing.T) {
	loc, err := UIConfig{Timezone: "Mars/Olympus"}.Location()
	require.Error(t, err)
	require.Equal(t, time.Local, loc)

	loc, err = UIConfig{}.Location()
	require.NoError(t, err)
	require.Equal(t, time.Local, loc)
}
