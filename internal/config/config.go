// Package config loads server configuration from an optional YAML file and
// the environment, with environment variables taking precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr" env:"ACCESSDIR_HTTP_ADDR" env-default:":8080"`
	Env      string `yaml:"env" env:"ACCESSDIR_ENV" env-default:"dev"` // "dev" | "prod"

	// Storage
	DataDir      string `yaml:"data_dir" env:"ACCESSDIR_DATA_DIR" env-default:"./data"`
	StoreBackend string `yaml:"store_backend" env:"ACCESSDIR_STORE_BACKEND" env-default:"csv"` // "csv" | "sqlite"
	DBPath       string `yaml:"db_path" env:"ACCESSDIR_DB_PATH" env-default:"./data/accessdir.db"`

	// Backups (csv backend only)
	BackupOnWrite       bool `yaml:"backup_on_write" env:"ACCESSDIR_BACKUP_ON_WRITE" env-default:"true"`
	BackupRetentionDays int  `yaml:"backup_retention_days" env:"ACCESSDIR_BACKUP_RETENTION_DAYS" env-default:"30"` // 0 = keep forever
	PruneIntervalHours  int  `yaml:"prune_interval_hours" env:"ACCESSDIR_PRUNE_INTERVAL_HOURS" env-default:"6"`

	// Reporting
	AlertHorizonDays int `yaml:"alert_horizon_days" env:"ACCESSDIR_ALERT_HORIZON_DAYS" env-default:"7"`
	AuditBufferCap   int `yaml:"audit_buffer_cap" env:"ACCESSDIR_AUDIT_BUFFER_CAP" env-default:"500"`
	DashboardTopN    int `yaml:"dashboard_top_n" env:"ACCESSDIR_DASHBOARD_TOP_N" env-default:"12"`
}

// Load reads the config file named by ACCESSDIR_CONFIG (if set and present)
// and then overlays environment variables.
func Load() (Config, error) {
	var cfg Config

	if path := strings.TrimSpace(os.Getenv("ACCESSDIR_CONFIG")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}

	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q (want csv or sqlite)", c.StoreBackend)
	}

	if c.BackupRetentionDays < 0 {
		c.BackupRetentionDays = 0
	}
	if c.PruneIntervalHours <= 0 {
		c.PruneIntervalHours = 6
	}
	if c.AlertHorizonDays <= 0 {
		c.AlertHorizonDays = 7
	}
	if c.AuditBufferCap <= 0 {
		c.AuditBufferCap = 500
	}
	if c.DashboardTopN <= 0 {
		c.DashboardTopN = 12
	}
	return nil
}
