package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Airia      AiriaConfig      `yaml:"airia"`
	Freepik    FreepikConfig    `yaml:"freepik"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Paths      PathsConfig      `yaml:"paths"`
	LogMode    string           `yaml:"log_mode"`
}

type AiriaConfig struct {
	PipelineURL       string        `yaml:"pipeline_url"`
	PromptPipelineURL string        `yaml:"prompt_pipeline_url"`
	APIKey            string        `yaml:"-"`
	UserID            string        `yaml:"user_id"`
	Timeout           time.Duration `yaml:"timeout"`
	PromptTimeout     time.Duration `yaml:"prompt_timeout"`
}

type FreepikConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"-"`
	Model           string        `yaml:"model"`
	Duration        int           `yaml:"duration"`
	PromptOptimizer bool          `yaml:"prompt_optimizer"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	Timeout         time.Duration `yaml:"timeout"`
}

type ClickHouseConfig struct {
	URL      string        `yaml:"url"`
	User     string        `yaml:"user"`
	Password string        `yaml:"-"`
	Database string        `yaml:"database"`
	Table    string        `yaml:"table"`
	Timeout  time.Duration `yaml:"timeout"`
}

type YouTubeConfig struct {
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	RefreshToken string `yaml:"-"`
	CategoryID   string `yaml:"category_id"`
	Visibility   string `yaml:"visibility"`
	MadeForKids  bool   `yaml:"made_for_kids"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
}

// Default returns the settings used when no config file is present
func Default() *Config {
	return &Config{
		Airia: AiriaConfig{
			Timeout:       60 * time.Second,
			PromptTimeout: 60 * time.Second,
		},
		Freepik: FreepikConfig{
			BaseURL:         "https://api.freepik.com/v1/ai",
			Model:           "minimax-hailuo-02-768p",
			Duration:        6,
			PromptOptimizer: true,
			PollInterval:    3 * time.Second,
			Timeout:         600 * time.Second,
		},
		ClickHouse: ClickHouseConfig{
			Database: "default",
			Table:    "dreampulse_dreams",
			Timeout:  30 * time.Second,
		},
		YouTube: YouTubeConfig{
			CategoryID: "1",
			Visibility: "private",
		},
		Paths:   PathsConfig{Output: "output"},
		LogMode: "dev",
	}
}

// Load reads a YAML file over the defaults. A missing file is not an error.
// Environment variables are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides URLs and credentials from the environment
func (c *Config) ApplyEnv() {
	setString(&c.Airia.PipelineURL, "AIRIA_PIPELINE_URL")
	setString(&c.Airia.PromptPipelineURL, "AIRIA_PROMPT_PIPELINE_URL")
	setString(&c.Airia.APIKey, "AIRIA_API_KEY")
	setString(&c.Airia.UserID, "AIRIA_USER_ID")
	setString(&c.Freepik.APIKey, "FREEPIK_API_KEY")
	setString(&c.ClickHouse.URL, "CLICKHOUSE_URL")
	setString(&c.ClickHouse.User, "CLICKHOUSE_USER")
	setString(&c.ClickHouse.Password, "CLICKHOUSE_PASSWORD")
	setString(&c.ClickHouse.Database, "CLICKHOUSE_DATABASE")
	setString(&c.ClickHouse.Table, "CLICKHOUSE_TABLE")
	setString(&c.YouTube.ClientID, "YOUTUBE_CLIENT_ID")
	setString(&c.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET")
	setString(&c.YouTube.RefreshToken, "YOUTUBE_REFRESH_TOKEN")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the credentials for the requested stages are present
func (c *Config) Validate(needClickHouse, needYouTube bool) error {
	if c.Airia.PipelineURL == "" || c.Airia.APIKey == "" {
		return fmt.Errorf("AIRIA_PIPELINE_URL and AIRIA_API_KEY must be set")
	}
	if c.Freepik.APIKey == "" {
		return fmt.Errorf("FREEPIK_API_KEY must be set")
	}
	if c.Freepik.Duration != 6 && c.Freepik.Duration != 10 {
		return fmt.Errorf("duration must be 6 or 10 seconds, got %d", c.Freepik.Duration)
	}
	if needClickHouse && (c.ClickHouse.URL == "" || c.ClickHouse.User == "" || c.ClickHouse.Password == "") {
		return fmt.Errorf("CLICKHOUSE_URL, CLICKHOUSE_USER, and CLICKHOUSE_PASSWORD must be set when using --store-clickhouse")
	}
	if needYouTube && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "" || c.YouTube.RefreshToken == "") {
		return fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, and YOUTUBE_REFRESH_TOKEN must be set when using --upload-youtube")
	}
	return nil
}
