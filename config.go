package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// config is read from config.yaml. ${VAR} references in the file are expanded
// from the environment after .env has been loaded.
type config struct {
	Server    serverConfig    `yaml:"server"`
	Database  databaseConfig  `yaml:"database"`
	Redis     redisConfig     `yaml:"redis"`
	Coach     coachConfig     `yaml:"coach"`
	Nutrition nutritionConfig `yaml:"nutrition"`
	Sessions  sessionsConfig  `yaml:"sessions"`
}

type serverConfig struct {
	Addr string `yaml:"addr"`
}

// databaseConfig selects the rating store: Postgres when URL is set, else
// SQLite when SQLitePath is set, else in-memory.
type databaseConfig struct {
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

// redisConfig enables the Redis nutrition cache when Address is set.
type redisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type coachConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type nutritionConfig struct {
	BaseURL  string        `yaml:"base_url"`
	AppID    string        `yaml:"app_id"`
	APIKey   string        `yaml:"api_key"`
	Timezone string        `yaml:"timezone"`
	Timeout  time.Duration `yaml:"timeout"`
}

type sessionsConfig struct {
	IdleTTL         time.Duration `yaml:"idle_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// loadConfig loads .env (if present), reads and expands the YAML file at path
// and fills defaults. A missing config file is not an error: defaults plus the
// environment are enough to run locally.
func loadConfig(path string) (*config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("[loadConfig] %s not found, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		expanded := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero-valued fields. API keys fall back to the
// conventional environment variables so a bare .env works without a YAML file.
func (c *config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "localhost:3000"
	}
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DB_URL")
	}
	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = 24 * time.Hour
	}

	if c.Coach.BaseURL == "" {
		c.Coach.BaseURL = "https://openrouter.ai/api"
	}
	if c.Coach.APIKey == "" {
		c.Coach.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if c.Coach.Model == "" {
		c.Coach.Model = "mistralai/mistral-7b-instruct"
	}
	if c.Coach.Temperature == 0 {
		c.Coach.Temperature = 0.5
	}
	if c.Coach.Timeout == 0 {
		c.Coach.Timeout = 30 * time.Second
	}

	if c.Nutrition.BaseURL == "" {
		c.Nutrition.BaseURL = "https://trackapi.nutritionix.com"
	}
	if c.Nutrition.AppID == "" {
		c.Nutrition.AppID = os.Getenv("NUTRI_APP_ID")
	}
	if c.Nutrition.APIKey == "" {
		c.Nutrition.APIKey = os.Getenv("NUTRI_API_KEY")
	}
	if c.Nutrition.Timezone == "" {
		c.Nutrition.Timezone = "Europe/Vienna"
	}
	if c.Nutrition.Timeout == 0 {
		c.Nutrition.Timeout = 15 * time.Second
	}

	if c.Sessions.IdleTTL == 0 {
		c.Sessions.IdleTTL = 2 * time.Hour
	}
	if c.Sessions.CleanupInterval == 0 {
		c.Sessions.CleanupInterval = 10 * time.Minute
	}
}
