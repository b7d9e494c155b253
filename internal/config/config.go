package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Console  ConsoleConfig  `yaml:"console"`
	Telegram TelegramConfig `yaml:"telegram"`
	Web      WebConfig      `yaml:"web"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type BackendConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type ConsoleConfig struct {
	Exchange          string `yaml:"exchange"`
	ScanLimit         int    `yaml:"scan_limit"`
	SuggestLimit      int    `yaml:"suggest_limit"`
	SuggestDebounceMs int    `yaml:"suggest_debounce_ms"`
	PnLHistoryDays    int    `yaml:"pnl_history_days"`
	RefreshInterval   string `yaml:"refresh_interval"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the yaml config at path. Values from a .env file or the process
// environment take precedence for the backend URL and the secrets.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CONSOLE_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("CONSOLE_PASSWORD"); v != "" {
		cfg.Backend.Password = v
	}
	if v := os.Getenv("CONSOLE_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Backend.Username == "" {
		cfg.Backend.Username = "user"
	}
	if cfg.Console.Exchange == "" {
		cfg.Console.Exchange = "NSE"
	}
	if cfg.Console.ScanLimit == 0 {
		cfg.Console.ScanLimit = 20
	}
	if cfg.Console.SuggestLimit == 0 {
		cfg.Console.SuggestLimit = 15
	}
	if cfg.Console.SuggestDebounceMs == 0 {
		cfg.Console.SuggestDebounceMs = 300
	}
	if cfg.Console.PnLHistoryDays == 0 {
		cfg.Console.PnLHistoryDays = 7
	}
	if cfg.Console.RefreshInterval == "" {
		cfg.Console.RefreshInterval = "30s"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8090
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}
	if _, err := time.ParseDuration(c.Console.RefreshInterval); err != nil {
		return fmt.Errorf("invalid console.refresh_interval %q: %w", c.Console.RefreshInterval, err)
	}
	if c.Console.ScanLimit < 0 || c.Console.SuggestLimit < 0 || c.Console.PnLHistoryDays < 0 {
		return fmt.Errorf("console limits must not be negative")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

func (c *Config) RefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.Console.RefreshInterval)
	return d
}

func (c *Config) SuggestDebounce() time.Duration {
	return time.Duration(c.Console.SuggestDebounceMs) * time.Millisecond
}
