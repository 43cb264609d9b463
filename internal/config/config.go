// Package config loads service settings from an optional TOML file and
// SALON_* environment variables, in that order of precedence (env wins).
package config

import (
	"fmt"
	"time"

	"github.com/example/salon-scheduler/internal/scheduler"
)

// Config captures every setting of the salon scheduler service.
type Config struct {
	HTTP     HTTPConfig     `toml:"http"`
	Database DatabaseConfig `toml:"database"`
	Session  SessionConfig  `toml:"session"`
	Business BusinessConfig `toml:"business"`
	Admin    AdminConfig    `toml:"admin"`
	Log      LogConfig      `toml:"log"`

	// Source is the file the settings were read from, empty when none.
	Source string `toml:"-"`
}

type HTTPConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	SecureCookies   bool     `toml:"secure_cookies"`
}

type DatabaseConfig struct {
	Driver       string   `toml:"driver"`
	DSN          string   `toml:"dsn"`
	MaxOpenConns int      `toml:"max_open_conns"`
	BusyTimeout  Duration `toml:"busy_timeout"`
	AutoMigrate  bool     `toml:"auto_migrate"`
}

type SessionConfig struct {
	TTL       Duration `toml:"ttl"`
	CacheSize int      `toml:"cache_size"`
	CacheTTL  Duration `toml:"cache_ttl"`
}

// BusinessConfig holds the opening window as HH:MM strings.
type BusinessConfig struct {
	Open  string `toml:"open"`
	Close string `toml:"close"`
}

// AdminConfig seeds an administrator account at startup when Username is set.
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration decodes "90s" style strings from TOML and the environment.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{15 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			DSN:         "file:salon.db",
			BusyTimeout: Duration{5 * time.Second},
			AutoMigrate: true,
		},
		Session: SessionConfig{
			TTL:       Duration{7 * 24 * time.Hour},
			CacheSize: 1024,
			CacheTTL:  Duration{time.Minute},
		},
		Business: BusinessConfig{Open: "09:00", Close: "19:00"},
		Log:      LogConfig{Level: "info", Format: "auto"},
	}
}

// Hours converts the business window into scheduler minutes.
func (c Config) Hours() (scheduler.Hours, error) {
	return scheduler.ParseHours(c.Business.Open, c.Business.Close)
}
