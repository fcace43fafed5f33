// Package config 从环境变量读取服务配置（.env 由入口通过 godotenv 预先加载），避免在业务代码里散落解析逻辑。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	Server   ServerConfig
	DB       DBConfig
	Cache    CacheConfig
	Security SecurityConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Addr string

	// 映射到 net/http 的 http.Server。
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

type DBConfig struct {
	// Driver 支持 mysql/sqlite；为空时 dsn 非空推断为 mysql，否则 sqlite。
	Driver string
	// DSN 仅用于 MySQL（示例：user:pass@tcp(127.0.0.1:3306)/bangumi?charset=utf8mb4）。
	DSN string
	// SQLitePath 可包含 DSN query，如 ?_busy_timeout=30000。
	SQLitePath string
}

type CacheConfig struct {
	// Dir 是 badger 数据目录；为空时使用内存模式（进程重启即丢失）。
	Dir string
}

type SecurityConfig struct {
	SessionSecret        string
	DisableSecureCookies bool
	SessionTTL           time.Duration
}

type AuthConfig struct {
	TokenCacheTTL       time.Duration
	UserCacheTTL        time.Duration
	PermissionCacheTTL  time.Duration
	PermissionCacheSize int

	// RestrictedUserIDs 为 nil 时使用内置名单；显式配置为空串表示不限制任何用户。
	RestrictedUserIDs []int64
}

// LoadFromEnv 仅从环境变量加载配置（不读取任何配置文件）。
func LoadFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return normalizeAndValidate(cfg)
}

func defaultConfig() Config {
	return Config{
		Env: "dev",
		Server: ServerConfig{
			Addr:              ":3000",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		DB: DBConfig{
			SQLitePath: "./data/chii.db?_busy_timeout=30000",
		},
		Security: SecurityConfig{
			SessionTTL: 30 * 24 * time.Hour,
		},
		Auth: AuthConfig{
			TokenCacheTTL:       24 * time.Hour,
			UserCacheTTL:        time.Hour,
			PermissionCacheTTL:  10 * time.Minute,
			PermissionCacheSize: 1024,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CHII_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("CHII_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CHII_DB_DRIVER"); v != "" {
		cfg.DB.Driver = v
	}
	if v := os.Getenv("CHII_DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("CHII_SQLITE_PATH"); v != "" {
		cfg.DB.SQLitePath = v
	}
	if v := os.Getenv("CHII_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("CHII_SESSION_SECRET"); v != "" {
		cfg.Security.SessionSecret = v
	}
	if v := os.Getenv("CHII_DISABLE_SECURE_COOKIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Security.DisableSecureCookies = b
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CHII_SESSION_TTL", &cfg.Security.SessionTTL},
		{"CHII_AUTH_TOKEN_CACHE_TTL", &cfg.Auth.TokenCacheTTL},
		{"CHII_AUTH_USER_CACHE_TTL", &cfg.Auth.UserCacheTTL},
		{"CHII_AUTH_PERMISSION_CACHE_TTL", &cfg.Auth.PermissionCacheTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s 不合法: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("CHII_AUTH_PERMISSION_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHII_AUTH_PERMISSION_CACHE_SIZE 不合法: %w", err)
		}
		cfg.Auth.PermissionCacheSize = n
	}
	if v, ok := os.LookupEnv("CHII_AUTH_RESTRICTED_USER_IDS"); ok {
		ids, err := parseIDList(v)
		if err != nil {
			return fmt.Errorf("CHII_AUTH_RESTRICTED_USER_IDS 不合法: %w", err)
		}
		cfg.Auth.RestrictedUserIDs = ids
	}
	return nil
}

func normalizeAndValidate(cfg Config) (Config, error) {
	cfg.Env = strings.TrimSpace(cfg.Env)
	if cfg.Server.Addr == "" {
		return Config{}, errors.New("server.addr 不能为空")
	}

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	cfg.DB.DSN = strings.TrimSpace(cfg.DB.DSN)
	cfg.DB.SQLitePath = strings.TrimSpace(cfg.DB.SQLitePath)
	if cfg.DB.Driver == "" {
		if cfg.DB.DSN != "" {
			cfg.DB.Driver = "mysql"
		} else {
			cfg.DB.Driver = "sqlite"
		}
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if cfg.DB.SQLitePath == "" {
			cfg.DB.SQLitePath = "./data/chii.db?_busy_timeout=30000"
		}
	case "mysql":
		if cfg.DB.DSN == "" {
			return Config{}, errors.New("db.dsn 不能为空（db.driver=mysql）")
		}
	default:
		return Config{}, fmt.Errorf("db.driver 不支持：%s（仅支持 mysql/sqlite）", cfg.DB.Driver)
	}

	cfg.Cache.Dir = strings.TrimSpace(cfg.Cache.Dir)
	cfg.Security.SessionSecret = strings.TrimSpace(cfg.Security.SessionSecret)
	if cfg.Env != "dev" && len(cfg.Security.SessionSecret) < 32 {
		return Config{}, errors.New("非 dev 环境必须配置至少 32 字节的 session secret")
	}
	if cfg.Security.SessionTTL <= 0 {
		return Config{}, errors.New("session ttl 必须大于 0")
	}
	if cfg.Auth.PermissionCacheSize < 0 {
		return Config{}, errors.New("permission cache size 不能为负数")
	}
	return cfg, nil
}

func parseIDList(raw string) ([]int64, error) {
	out := []int64{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("用户 id %q 不合法", part)
		}
		out = append(out, id)
	}
	return out, nil
}
