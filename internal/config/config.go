package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	LogConfig   logger.LogConfig `json:"log_config"`
	DB          DatabaseConfig   `json:"db"`
	Auth        AuthConfig       `json:"auth"`
	AI          AIConfig         `json:"ai"`
	FileStore   FileStoreConfig  `json:"file_store"`
	CORSOrigins []string         `json:"cors_origins"`
	Retention   RetentionConfig  `json:"retention"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AuthConfig struct {
	AccessSecret     string `json:"access_secret"`
	RefreshSecret    string `json:"refresh_secret"`
	AccessTTLMinutes int    `json:"access_ttl_minutes"`
	RefreshTTLHours  int    `json:"refresh_ttl_hours"`
	CookieSecure     bool   `json:"cookie_secure"`
}

type AIConfig struct {
	Provider               string      `json:"provider"`
	Data                   interface{} `json:"data"`
	SummaryModel           string      `json:"summary_model"`
	ImageModel             string      `json:"image_model"`
	VideoModel             string      `json:"video_model"`
	VideoSeconds           int         `json:"video_seconds"`
	MaxInputChars          int         `json:"max_input_chars"`
	VideoWaitBudgetSeconds int         `json:"video_wait_budget_seconds"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RetentionConfig struct {
	EventKeepDays int    `json:"event_keep_days"`
	CleanupSpec   string `json:"cleanup_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.DBName == "" {
		return nil, fmt.Errorf("db host/user/dbname are required")
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
		return nil, fmt.Errorf("auth.access_secret and auth.refresh_secret are required")
	}
	if cfg.Auth.AccessSecret == cfg.Auth.RefreshSecret {
		return nil, fmt.Errorf("auth.access_secret and auth.refresh_secret must differ")
	}
	if cfg.Auth.AccessTTLMinutes == 0 {
		cfg.Auth.AccessTTLMinutes = 15
	}
	if cfg.Auth.RefreshTTLHours == 0 {
		cfg.Auth.RefreshTTLHours = 168
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.SummaryModel == "" || cfg.AI.ImageModel == "" || cfg.AI.VideoModel == "" {
		return nil, fmt.Errorf("ai.summary_model, ai.image_model and ai.video_model are required")
	}
	if cfg.AI.VideoSeconds == 0 {
		cfg.AI.VideoSeconds = 4
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 50000
	}
	if cfg.AI.VideoWaitBudgetSeconds == 0 {
		cfg.AI.VideoWaitBudgetSeconds = 300
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.Retention.EventKeepDays == 0 {
		cfg.Retention.EventKeepDays = 90
	}
	if cfg.Retention.CleanupSpec == "" {
		cfg.Retention.CleanupSpec = "30 3 * * *"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
