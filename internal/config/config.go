// Package config loads gallerysync configuration from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the sync core needs from its host.
type Config struct {
	DataDir     string
	RemoteURL   string
	Token       string
	PageSize    int
	CacheLimit  int
	LogLevel    string
	HTTPTimeout int // seconds
}

const (
	defaultConfigPath = "~/.config/gallerysync/config.toml"
	defaultDataDir    = "~/.local/share/gallerysync"
	defaultPageSize   = 10
	defaultCacheLimit = 200
	defaultLogLevel   = "info"
	defaultTimeout    = 30
)

// Load locates and parses the config file, falling back to defaults when
// missing, then applies .env and environment overrides (GALLERYSYNC_*).
func Load(path string) (Config, error) {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	cfg := Config{
		PageSize:    defaultPageSize,
		CacheLimit:  defaultCacheLimit,
		LogLevel:    defaultLogLevel,
		HTTPTimeout: defaultTimeout,
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
	} else {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		var raw struct {
			DataDir     string `toml:"data_dir"`
			RemoteURL   string `toml:"remote_url"`
			Token       string `toml:"token"`
			PageSize    int    `toml:"page_size"`
			CacheLimit  int    `toml:"cache_limit"`
			LogLevel    string `toml:"log_level"`
			HTTPTimeout int    `toml:"http_timeout"`
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}

		cfg.DataDir = strings.TrimSpace(raw.DataDir)
		cfg.RemoteURL = strings.TrimSpace(raw.RemoteURL)
		cfg.Token = strings.TrimSpace(raw.Token)
		if raw.PageSize > 0 {
			cfg.PageSize = raw.PageSize
		}
		if raw.CacheLimit > 0 {
			cfg.CacheLimit = raw.CacheLimit
		}
		if raw.LogLevel != "" {
			cfg.LogLevel = raw.LogLevel
		}
		if raw.HTTPTimeout > 0 {
			cfg.HTTPTimeout = raw.HTTPTimeout
		}
	}

	applyEnv(&cfg)

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	cfg.DataDir = mustExpand(cfg.DataDir)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GALLERYSYNC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("GALLERYSYNC_REMOTE_URL"); v != "" {
		cfg.RemoteURL = v
	}
	if v := os.Getenv("GALLERYSYNC_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("GALLERYSYNC_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("GALLERYSYNC_CACHE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheLimit = n
		}
	}
	if v := os.Getenv("GALLERYSYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GALLERYSYNC_HTTP_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = n
		}
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
