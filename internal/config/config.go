package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API    APIConfig
	UI     UIConfig
	Log    LogConfig
	DevAPI DevAPIConfig
}

// APIConfig holds the remote API settings.
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	TokenEnv string        `mapstructure:"token_env"`
	Token    string        `mapstructure:"token"`
	Profile  string        `mapstructure:"profile"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// UIConfig holds presentation and interaction settings.
type UIConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	Debounce       time.Duration `mapstructure:"debounce"`
	ModalExitDelay time.Duration `mapstructure:"modal_exit_delay"`
	ToastTTL       time.Duration `mapstructure:"toast_ttl"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	Timezone       string        `mapstructure:"timezone"`
	DateFormat     string        `mapstructure:"date_format"`
}

// LogConfig holds the log file settings. The terminal belongs to the UI, so
// logs always go to a file.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// DevAPIConfig holds settings of the development API server.
type DevAPIConfig struct {
	Addr          string        `mapstructure:"addr"`
	DatabasePath  string        `mapstructure:"database_path"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminEmail    string        `mapstructure:"admin_email"`
	AdminPassword string        `mapstructure:"admin_password"`
	SeedRows      int           `mapstructure:"seed_rows"`
	CORSOrigins   []string      `mapstructure:"cors_origins"`
}

// Path returns the config file location: $ADMINPANEL_CONFIG or
// ~/.config/adminpanel/config.toml.
func Path() string {
	if p := os.Getenv("ADMINPANEL_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "adminpanel", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix ADMINPANEL_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("ADMINPANEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil && !missing(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	share := filepath.Join(os.Getenv("HOME"), ".local", "share", "adminpanel")

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.token_env", "ADMINPANEL_TOKEN")
	v.SetDefault("api.token", "")
	v.SetDefault("api.profile", "default")
	v.SetDefault("api.timeout", 15*time.Second)

	v.SetDefault("ui.page_size", 10)
	v.SetDefault("ui.debounce", 300*time.Millisecond)
	v.SetDefault("ui.modal_exit_delay", 300*time.Millisecond)
	v.SetDefault("ui.toast_ttl", 4*time.Second)
	v.SetDefault("ui.confirm_timeout", 30*time.Second)
	v.SetDefault("ui.timezone", "Local")
	v.SetDefault("ui.date_format", "2006-01-02 15:04")

	v.SetDefault("log.path", filepath.Join(share, "adminpanel.log"))
	v.SetDefault("log.level", "info")

	v.SetDefault("devapi.addr", ":8080")
	v.SetDefault("devapi.database_path", filepath.Join(share, "devapi.db"))
	v.SetDefault("devapi.jwt_secret", "change-me")
	v.SetDefault("devapi.token_ttl", 12*time.Hour)
	v.SetDefault("devapi.admin_email", "admin@example.com")
	v.SetDefault("devapi.admin_password", "admin")
	v.SetDefault("devapi.seed_rows", 120)
	v.SetDefault("devapi.cors_origins", []string{"*"})
}

// missing reports whether err only says there is no config file yet.
func missing(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

// Location resolves ui.timezone, falling back to time.Local.
func (c UIConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return loc, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// It is used by `adminpanel login` to persist the chosen API and profile. Tokens
// never go here; they live in the secrets store.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.token_env", cfg.API.TokenEnv)
	v.Set("api.profile", cfg.API.Profile)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("ui.debounce", cfg.UI.Debounce.String())
	v.Set("ui.modal_exit_delay", cfg.UI.ModalExitDelay.String())
	v.Set("ui.toast_ttl", cfg.UI.ToastTTL.String())
	v.Set("ui.confirm_timeout", cfg.UI.ConfirmTimeout.String())
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
