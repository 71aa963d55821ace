// Package config loads service configuration from an optional YAML file,
// .env files, and environment variables. Environment always wins over file
// values so deployments can override without editing the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
)

const (
	DefaultAddr          = ":8080"
	DefaultWindowMS      = 60000
	DefaultHistoryPath   = "tasksync.db"
	DefaultNotionVersion = "2022-06-28"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// NotionConfig holds source-side settings.
type NotionConfig struct {
	Token       string `yaml:"token"`
	APIVersion  string `yaml:"api_version"`
	WatchUserID string `yaml:"watch_user_id"`
}

// TodoistConfig holds destination-side settings.
type TodoistConfig struct {
	Token         string `yaml:"token"`
	ProjectID     string `yaml:"project_id"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// EnrichmentConfig controls the optional content-enrichment pass.
type EnrichmentConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// DebounceConfig controls the coordinator window.
type DebounceConfig struct {
	WindowMS int `yaml:"window_ms"`
}

// HistoryConfig controls the sync-run record.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NATSConfig controls the optional event mirror.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Notion     NotionConfig     `yaml:"notion"`
	Todoist    TodoistConfig    `yaml:"todoist"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Debounce   DebounceConfig   `yaml:"debounce"`
	History    HistoryConfig    `yaml:"history"`
	NATS       NATSConfig       `yaml:"nats"`
}

// Window returns the debounce window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Debounce.WindowMS) * time.Millisecond
}

// Load reads configuration. An empty path skips the YAML file; a named file
// that does not exist is an error.
func Load(path string) (*Config, error) {
	// .env files never override real environment variables.
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read config file").
				WithContext("path", path).Build()
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse config file").
				WithContext("path", path).Build()
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.Notion.Token, "NOTION_TOKEN")
	setIfEnv(&c.Notion.APIVersion, "NOTION_API_VERSION")
	setIfEnv(&c.Notion.WatchUserID, "NOTION_WATCH_USER_ID")
	setIfEnv(&c.Todoist.Token, "TODOIST_TOKEN")
	setIfEnv(&c.Todoist.ProjectID, "TODOIST_PROJECT_ID")
	setIfEnv(&c.Todoist.WebhookSecret, "TODOIST_WEBHOOK_SECRET")
	setIfEnv(&c.Enrichment.APIKey, "OPENAI_API_KEY")
	setIfEnv(&c.NATS.URL, "NATS_URL")
	setIfEnv(&c.Server.Addr, "TASKSYNC_ADDR")
	setIfEnv(&c.History.Path, "TASKSYNC_HISTORY_PATH")

	if v := os.Getenv("SYNC_DEBOUNCE_WINDOW_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.Debounce.WindowMS = ms
		}
	}
	if c.Enrichment.APIKey != "" {
		c.Enrichment.Enabled = true
	}
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Notion.APIVersion == "" {
		c.Notion.APIVersion = DefaultNotionVersion
	}
	if c.Debounce.WindowMS <= 0 {
		c.Debounce.WindowMS = DefaultWindowMS
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if c.Notion.Token == "" {
		return ferrors.ConfigError("notion token is required (NOTION_TOKEN)").Build()
	}
	if c.Todoist.Token == "" {
		return ferrors.ConfigError("todoist token is required (TODOIST_TOKEN)").Build()
	}
	if c.Enrichment.Enabled && c.Enrichment.APIKey == "" {
		return ferrors.ConfigError("enrichment enabled without an api key").Build()
	}
	if c.Debounce.WindowMS <= 0 {
		return ferrors.ConfigError(fmt.Sprintf("debounce window must be positive, got %d ms", c.Debounce.WindowMS)).Build()
	}
	return nil
}
