package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBackendURL is used when neither BACKEND_URL nor the config file name a backend.
const DefaultBackendURL = "http://localhost:8000"

// PaperSize describes a paper format in inches.
type PaperSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Config is the application configuration loaded from YAML.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Backend struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"backend"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Cache struct {
		RedisHost    string        `yaml:"redis_host"`
		RateLimitDB  int           `yaml:"redis_rate_db"`
		ObjectURLDB  int           `yaml:"redis_object_url_db"`
		ObjectURLTTL time.Duration `yaml:"object_url_ttl"`
	} `yaml:"cache"`

	RateLimiter struct {
		Interval    time.Duration `yaml:"interval"`
		SubmitLimit int           `yaml:"submit_limit"`
	} `yaml:"rate_limiter"`

	Download struct {
		Dir             string `yaml:"dir"`
		DefaultFilename string `yaml:"default_filename"`
	} `yaml:"download"`

	Preview struct {
		PrintEnabled    bool      `yaml:"print_enabled"`
		ChromePath      string    `yaml:"chrome_path"`
		ChromeNoSandbox bool      `yaml:"chrome_no_sandbox"`
		TimeoutSecs     int       `yaml:"timeout_secs"`
		Paper           PaperSize `yaml:"paper"`
		Margin          float64   `yaml:"margin"`
	} `yaml:"preview"`
}

var (
	// AppConfig holds the configuration loaded by LoadConfig.
	AppConfig Config
	cfgMu     sync.RWMutex
)

// DefaultConfig returns the configuration used for every key the YAML file leaves out.
func DefaultConfig() Config {
	var cfg Config
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = ":8080"
	cfg.Backend.BaseURL = DefaultBackendURL
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 7
	cfg.Cache.ObjectURLTTL = 5 * time.Minute
	cfg.Cache.RateLimitDB = 0
	cfg.Cache.ObjectURLDB = 1
	cfg.RateLimiter.Interval = time.Minute
	cfg.Download.Dir = "downloads"
	cfg.Download.DefaultFilename = "MakeMeHiredCV.pdf"
	cfg.Preview.TimeoutSecs = 30
	cfg.Preview.Paper = PaperSize{Width: 8.27, Height: 11.69}
	cfg.Preview.Margin = 0.4
	return cfg
}

// LoadConfig reads the file named by CONFIG_PATH (or config.yaml) and stores it in AppConfig.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path)
}

// LoadFrom reads the YAML file at path on top of DefaultConfig. A missing file yields the
// defaults; unreadable or invalid configuration panics.
func LoadFrom(path string) Config {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		panic(fmt.Sprintf("read config %s: %v", path, err))
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Sprintf("parse config %s: %v", path, err))
		}
	}

	// BACKEND_URL mirrors the frontend build variable and wins over the file.
	if v := strings.TrimSpace(os.Getenv("BACKEND_URL")); v != "" {
		cfg.Backend.BaseURL = v
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")

	if err := validate(cfg); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", path, err))
	}

	SetConfig(cfg)
	return cfg
}

func validate(cfg Config) error {
	if cfg.Server.Prefork {
		// every child process would hold its own session
		return errors.New("server.prefork is not supported")
	}
	if cfg.Backend.BaseURL == "" {
		return errors.New("backend.base_url is empty")
	}
	if !strings.HasPrefix(cfg.Backend.BaseURL, "http://") && !strings.HasPrefix(cfg.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend.base_url %q must be http or https", cfg.Backend.BaseURL)
	}
	if cfg.RateLimiter.SubmitLimit < 0 {
		return errors.New("rate_limiter.submit_limit must not be negative")
	}
	if cfg.RateLimiter.SubmitLimit > 0 && cfg.RateLimiter.Interval <= 0 {
		return errors.New("rate_limiter.interval must be positive")
	}
	if cfg.Cache.ObjectURLTTL <= 0 {
		return errors.New("cache.object_url_ttl must be positive")
	}
	if cfg.Download.Dir == "" {
		return errors.New("download.dir is empty")
	}
	if cfg.Preview.PrintEnabled && cfg.Preview.TimeoutSecs <= 0 {
		return errors.New("preview.timeout_secs must be positive")
	}
	return nil
}

// SetConfig replaces AppConfig.
func SetConfig(cfg Config) {
	cfgMu.Lock()
	AppConfig = cfg
	cfgMu.Unlock()
}

// GetConfig returns the current AppConfig.
func GetConfig() Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return AppConfig
}
