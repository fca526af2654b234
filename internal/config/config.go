package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	LibraryRoot    string
	ArchiveDirName string
	SystemDirName  string
	ExternalRoot   string
	TagCatalogPath string

	MatchThreshold         int
	MatchNameWeight        float64
	MatchCustomerWeight    float64
	MatchCustomerCodeBonus int
	MatchPartNumberBonus   int
	MatchInterval          time.Duration

	StoreBusyTimeout time.Duration
	WatchEnabled     bool
	APIPort          string

	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// SystemDir returns the absolute directory holding the index.
func (c *Config) SystemDir() string {
	return filepath.Join(c.LibraryRoot, c.SystemDirName)
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or one of its parents, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LibraryRoot:    getEnv("LIBRARY_ROOT", ""),
		ArchiveDirName: getEnv("ARCHIVE_DIR_NAME", "归档项目"),
		SystemDirName:  getEnv("SYSTEM_DIR_NAME", ".pm_system"),
		ExternalRoot:   getEnv("EXTERNAL_ROOT", ""),
		TagCatalogPath: getEnv("TAG_CATALOG_PATH", ""),
		APIPort:        getEnv("API_PORT", "9000"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:        getEnv("LOG_FILE", ""),
	}

	p := parser{}
	cfg.MatchThreshold = p.int("MATCH_THRESHOLD", 40)
	cfg.MatchNameWeight = p.float("MATCH_NAME_WEIGHT", 0.6)
	cfg.MatchCustomerWeight = p.float("MATCH_CUSTOMER_WEIGHT", 0.4)
	cfg.MatchCustomerCodeBonus = p.int("MATCH_CUSTOMER_CODE_BONUS", 25)
	cfg.MatchPartNumberBonus = p.int("MATCH_PART_NUMBER_BONUS", 30)
	cfg.MatchInterval = p.duration("MATCH_INTERVAL", 0)
	cfg.StoreBusyTimeout = p.duration("STORE_BUSY_TIMEOUT", 5*time.Second)
	cfg.WatchEnabled = p.bool("WATCH_ENABLED", true)
	cfg.LogMaxSizeMB = p.int("LOG_MAX_SIZE_MB", 50)
	cfg.LogMaxBackups = p.int("LOG_MAX_BACKUPS", 5)
	cfg.LogMaxAgeDays = p.int("LOG_MAX_AGE_DAYS", 30)
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create the system directory for the index
	if err := os.MkdirAll(cfg.SystemDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create system directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.LibraryRoot == "" {
		return fmt.Errorf("LIBRARY_ROOT is required")
	}
	info, err := os.Stat(c.LibraryRoot)
	if err != nil {
		return fmt.Errorf("LIBRARY_ROOT is not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("LIBRARY_ROOT must be a directory")
	}
	if strings.ContainsAny(c.SystemDirName, `/\`) || strings.ContainsAny(c.ArchiveDirName, `/\`) {
		return fmt.Errorf("SYSTEM_DIR_NAME and ARCHIVE_DIR_NAME must be plain directory names")
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		return fmt.Errorf("MATCH_THRESHOLD must be between 0 and 100")
	}
	if c.MatchNameWeight < 0 || c.MatchCustomerWeight < 0 || c.MatchNameWeight+c.MatchCustomerWeight > 1 {
		return fmt.Errorf("MATCH_NAME_WEIGHT and MATCH_CUSTOMER_WEIGHT must be non-negative and sum to at most 1")
	}
	if c.MatchCustomerCodeBonus < 0 || c.MatchPartNumberBonus < 0 {
		return fmt.Errorf("match bonuses must not be negative")
	}
	if c.MatchInterval < 0 {
		return fmt.Errorf("MATCH_INTERVAL must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}
	return nil
}

// parser reads typed variables and keeps the first error.
type parser struct {
	err error
}

func (p *parser) int(key string, def int) int {
	v := getEnv(key, "")
	if v == "" || p.err != nil {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%s must be a valid integer: %w", key, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" || p.err != nil {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("%s must be a valid number: %w", key, err)
		return def
	}
	return f
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" || p.err != nil {
		return def
	}
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("%s must be a duration such as 30m: %w", key, err)
		return def
	}
	return d
}

func (p *parser) bool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" || p.err != nil {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("%s must be true or false: %w", key, err)
		return def
	}
	return b
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
