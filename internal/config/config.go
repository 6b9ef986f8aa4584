package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources  Sources  `yaml:"sources"`
	Analysis Analysis `yaml:"analysis"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Schedule Schedule `yaml:"schedule"`
	Telegram Telegram `yaml:"telegram"`
	Logging  Logging  `yaml:"logging"`
}

type Sources struct {
	Zendesk     Zendesk  `yaml:"zendesk"`
	Intercom    Intercom `yaml:"intercom"`
	ReviewFeeds []Feed   `yaml:"review_feeds"`
}

type Zendesk struct {
	Enabled     bool   `yaml:"enabled"`
	Subdomain   string `yaml:"subdomain"`
	Email       string `yaml:"email"`
	APITokenEnv string `yaml:"api_token_env"`
}

type Intercom struct {
	Enabled        bool   `yaml:"enabled"`
	AccessTokenEnv string `yaml:"access_token_env"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Analysis struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	OllamaURL    string `yaml:"ollama_url"`
	OpenAIModel  string `yaml:"openai_model"`
	APIKeyEnv    string `yaml:"api_key_env"`
	MaxTokens    int    `yaml:"max_tokens"`
	NumThemes    int    `yaml:"num_themes"`
	MinFrequency int    `yaml:"min_frequency"`
	TrendWindow  int    `yaml:"trend_window"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Schedule struct {
	Enabled  bool   `yaml:"enabled"`
	Time     string `yaml:"time"` // HH:MM, 24-hour
	Timezone string `yaml:"timezone"`
}

type Telegram struct {
	Enabled     bool   `yaml:"enabled"`
	BotTokenEnv string `yaml:"bot_token_env"`
	ChatIDEnv   string `yaml:"chat_id_env"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for feedbacklens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "feedbacklens")
}

// DataDir returns the XDG data directory for feedbacklens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "feedbacklens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/feedbacklens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'feedbacklens init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			Zendesk: Zendesk{
				APITokenEnv: "ZENDESK_API_TOKEN",
			},
			Intercom: Intercom{
				AccessTokenEnv: "INTERCOM_ACCESS_TOKEN",
			},
		},
		Analysis: Analysis{
			Provider:     "ollama",
			Model:        "qwen2.5:7b",
			OllamaURL:    "http://localhost:11434",
			OpenAIModel:  "gpt-4o-mini",
			APIKeyEnv:    "OPENAI_API_KEY",
			MaxTokens:    512,
			NumThemes:    10,
			MinFrequency: 3,
			TrendWindow:  7,
		},
		Server: Server{Port: 8000},
		Schedule: Schedule{
			Time:     "06:00",
			Timezone: "Local",
		},
		Telegram: Telegram{
			BotTokenEnv: "TELEGRAM_BOT_TOKEN",
			ChatIDEnv:   "TELEGRAM_CHAT_ID",
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
