package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/salon-scheduler/internal/scheduler"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL.Duration)
	assert.Empty(t, cfg.Source)

	hours, err := cfg.Hours()
	require.NoError(t, err)
	assert.Equal(t, scheduler.DefaultHours, hours)
}

func TestLoadFile_FileAndEnvironment(t *testing.T) {
	path := writeFile(t, `
[http]
addr = "127.0.0.1:9000"
secure_cookies = true

[database]
driver = "postgres"
dsn = "postgres://salon@localhost/salon?sslmode=disable"

[session]
ttl = "48h"

[business]
open = "10:00"
close = "20:00"

[admin]
username = "owner"
password = "from-file"
`)
	t.Setenv("SALON_ADMIN_PASSWORD", "from-env")
	t.Setenv("SALON_LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.True(t, cfg.HTTP.SecureCookies)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 48*time.Hour, cfg.Session.TTL.Duration)
	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, "debug", cfg.Log.Level)

	hours, err := cfg.Hours()
	require.NoError(t, err)
	assert.Equal(t, scheduler.Hours{Open: 600, Close: 1200}, hours)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("unknown keys", func(t *testing.T) {
		_, err := LoadFile(writeFile(t, "[http]\nport = 80\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http.port")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
		require.Error(t, err)
	})

	t.Run("invalid environment values", func(t *testing.T) {
		t.Setenv("SALON_SESSION_TTL", "forever")
		t.Setenv("SALON_DB_DRIVER", "mysql")
		t.Setenv("SALON_BUSINESS_OPEN", "09:10")

		_, err := LoadFile("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SALON_SESSION_TTL")
		assert.Contains(t, err.Error(), "database.driver")
		assert.Contains(t, err.Error(), "business.open/business.close")
	})

	t.Run("admin without password", func(t *testing.T) {
		t.Setenv("SALON_ADMIN_USERNAME", "owner")

		_, err := LoadFile("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin.password")
	})
}

func TestLoad_ConfigFileVariable(t *testing.T) {
	path := writeFile(t, "[log]\nformat = \"json\"\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, path, cfg.Source)
}
