package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const DefaultConfigFile = "adaptly.toml"

type Config struct {
	Port                string  `toml:"port"`
	DatabaseURL         string  `toml:"database_url"`
	LocalDBPath         string  `toml:"local_db_path"`
	ClerkSecretKey      string  `toml:"clerk_secret_key"`
	Timezone            string  `toml:"timezone"`
	MetricsUser         string  `toml:"metrics_user"`
	MetricsPass         string  `toml:"metrics_pass"`
	PprofSecret         string  `toml:"pprof_secret"`
	FCMCredentialsFile  string  `toml:"fcm_credentials_file"`
	FCMServiceAccount   string  `toml:"-"`
	RateLimitRPS        float64 `toml:"rate_limit_rps"`
	RateLimitBurst      int     `toml:"rate_limit_burst"`
	LeaderboardSize     int     `toml:"leaderboard_size"`
	NotificationWorkers int     `toml:"notification_workers"`

	Location *time.Location `toml:"-"`
}

func defaults() Config {
	return Config{
		Port:                "3333",
		LocalDBPath:         "adaptly.db",
		Timezone:            "Local",
		FCMCredentialsFile:  "./serviceAccountKey.json",
		RateLimitRPS:        5,
		RateLimitBurst:      30,
		LeaderboardSize:     10,
		NotificationWorkers: 5,
	}
}

// Load layers defaults, the optional TOML file and the environment, in that
// order. A .env file is loaded into the environment first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := defaults()

	path := os.Getenv("ADAPTLY_CONFIG")
	if path == "" {
		path = DefaultConfigFile
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	_, err := toml.DecodeFile(path, c)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	log.Printf("Loaded config file %s", path)
	return nil
}

func (c *Config) applyEnv() {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("LOCAL_DB_PATH", &c.LocalDBPath)
	str("CLERK_SECRET_KEY", &c.ClerkSecretKey)
	str("TIMEZONE", &c.Timezone)
	str("METRICS_USER", &c.MetricsUser)
	str("METRICS_PASS", &c.MetricsPass)
	str("PPROF_SECRET", &c.PprofSecret)
	str("FCM_CREDENTIALS_FILE", &c.FCMCredentialsFile)
	str("FCM_SERVICE_ACCOUNT_JSON", &c.FCMServiceAccount)

	if v, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64); err == nil && v > 0 {
		c.RateLimitRPS = v
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST")); err == nil && v > 0 {
		c.RateLimitBurst = v
	}
	if v, err := strconv.Atoi(os.Getenv("LEADERBOARD_SIZE")); err == nil && v > 0 {
		c.LeaderboardSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("NOTIFICATION_WORKERS")); err == nil && v > 0 {
		c.NotificationWorkers = v
	}
}

// Offline reports whether accounts fall back to the local store.
func (c *Config) Offline() bool {
	return c.DatabaseURL == ""
}
