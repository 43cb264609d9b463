package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// EnvConfigFile names the variable that points at an explicit config file.
const EnvConfigFile = "SALON_CONFIG_FILE"

// searchPath is looked up below the XDG config directories.
const searchPath = "salon/config.toml"

// Load reads the config file, if any, then applies environment overrides and
// validates the result.
func Load() (Config, error) {
	path := strings.TrimSpace(os.Getenv(EnvConfigFile))
	if path == "" {
		if found, err := xdg.SearchConfigFile(searchPath); err == nil {
			path = found
		}
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("設定ファイルが見つかりません: %s", path)
			}
			return Config{}, fmt.Errorf("設定ファイルを読み込めません: %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return Config{}, fmt.Errorf("設定ファイルに不明なキーがあります: %s", strings.Join(keys, ", "))
		}
		cfg.Source = path
	}

	invalid := applyEnv(&cfg)
	missing, bad := validate(cfg)
	invalid = append(invalid, bad...)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の設定がありません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("設定値が不正です: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func applyEnv(cfg *Config) (invalid []string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *Duration) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			invalid = append(invalid, key)
			return
		}
		dst.Duration = d
	}
	num := func(key string, dst *int) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			invalid = append(invalid, key)
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, key)
			return
		}
		*dst = b
	}

	str("SALON_HTTP_ADDR", &cfg.HTTP.Addr)
	flag("SALON_SECURE_COOKIES", &cfg.HTTP.SecureCookies)
	str("SALON_DB_DRIVER", &cfg.Database.Driver)
	str("SALON_DB_DSN", &cfg.Database.DSN)
	num("SALON_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	flag("SALON_DB_AUTO_MIGRATE", &cfg.Database.AutoMigrate)
	dur("SALON_SESSION_TTL", &cfg.Session.TTL)
	num("SALON_SESSION_CACHE_SIZE", &cfg.Session.CacheSize)
	str("SALON_BUSINESS_OPEN", &cfg.Business.Open)
	str("SALON_BUSINESS_CLOSE", &cfg.Business.Close)
	str("SALON_ADMIN_USERNAME", &cfg.Admin.Username)
	str("SALON_ADMIN_PASSWORD", &cfg.Admin.Password)
	str("SALON_LOG_LEVEL", &cfg.Log.Level)
	str("SALON_LOG_FORMAT", &cfg.Log.Format)
	return invalid
}

func validate(cfg Config) (missing, invalid []string) {
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		missing = append(missing, "http.addr")
	}
	switch strings.ToLower(cfg.Database.Driver) {
	case "sqlite", "postgres":
	default:
		invalid = append(invalid, "database.driver")
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		missing = append(missing, "database.dsn")
	}
	if cfg.Session.TTL.Duration <= 0 {
		invalid = append(invalid, "session.ttl")
	}
	if _, err := cfg.Hours(); err != nil {
		invalid = append(invalid, "business.open/business.close")
	}
	if cfg.Admin.Username != "" && cfg.Admin.Password == "" {
		missing = append(missing, "admin.password")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		invalid = append(invalid, "log.level")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "auto", "json", "text":
	default:
		invalid = append(invalid, "log.format")
	}
	return missing, invalid
}
