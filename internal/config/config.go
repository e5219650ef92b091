package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"time"

	"github.com/tatianab/dungeon-crawler/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Game      GameConfig      `yaml:"game"`
	Storage   StorageConfig   `yaml:"storage"`
	Expansion ExpansionConfig `yaml:"expansion"`
	Server    ServerConfig    `yaml:"server"`
	Locale    LocaleConfig    `yaml:"locale"`
	Logging   logger.Config   `yaml:"logging"`
}

// LLMConfig selects the provider once at startup.
type LLMConfig struct {
	// Provider is "cloud" (Gemini) or "local" (Ollama).
	Provider string       `yaml:"provider"`
	Gemini   GeminiConfig `yaml:"gemini"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type OllamaConfig struct {
	BaseURL       string        `yaml:"base_url"`
	GenerateModel string        `yaml:"generate_model"`
	ClassifyModel string        `yaml:"classify_model"`
	Temperature   float64       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"`
}

type GameConfig struct {
	RoomCount int `yaml:"room_count"`
	// Seed drives topology generation. Zero picks a time-based seed.
	Seed int64 `yaml:"seed"`
	// SaveID is the default save used by the terminal client.
	SaveID string `yaml:"save_id"`
}

type StorageConfig struct {
	// Driver is "file", "sqlite" or "postgres".
	Driver     string         `yaml:"driver"`
	SaveDir    string         `yaml:"save_dir"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ExpansionConfig bounds background room expansion.
type ExpansionConfig struct {
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
	// RatePerSecond caps expansion calls to the provider. Zero disables the cap.
	RatePerSecond float64 `yaml:"rate_per_second"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// IsOriginAllowed reports whether a browser at origin may open a game socket on
// requestHost. With no configured origins only same-origin requests pass; "*"
// allows everything. Requests without an Origin header are not from a browser and pass.
func (c ServerConfig) IsOriginAllowed(origin, requestHost string) bool {
	if origin == "" {
		return true
	}
	if len(c.AllowedOrigins) == 0 {
		u, err := url.Parse(origin)
		return err == nil && u.Host == requestHost
	}
	return slices.Contains(c.AllowedOrigins, "*") || slices.Contains(c.AllowedOrigins, origin)
}

type LocaleConfig struct {
	Path     string `yaml:"path"`
	Language string `yaml:"language"`
}

// DefaultConfig returns a Config that plays against Gemini with JSON save files.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "cloud",
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
			Ollama: OllamaConfig{
				BaseURL:       "http://localhost:11434",
				GenerateModel: "llama3.1:8b",
				ClassifyModel: "llama3.1:8b",
				Temperature:   0.7,
				Timeout:       60 * time.Second,
			},
		},
		Game: GameConfig{
			RoomCount: 10,
			SaveID:    "savegame",
		},
		Storage: StorageConfig{
			Driver:     "file",
			SaveDir:    ".saves",
			SQLitePath: ".saves/dungeon.db",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "dungeon",
				SSLMode:  "disable",
			},
		},
		Expansion: ExpansionConfig{
			Workers:       2,
			QueueSize:     64,
			Timeout:       45 * time.Second,
			RatePerSecond: 2,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: logger.DefaultConfig(),
	}
}

// LoadConfig reads the YAML file at path over the defaults and applies environment
// overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv("DUNGEON_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.LLM.Ollama.BaseURL = v
	}
	if v := os.Getenv("DUNGEON_SAVE_DIR"); v != "" {
		c.Storage.SaveDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "cloud":
		if c.LLM.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
		}
	case "local":
		if c.LLM.Ollama.BaseURL == "" {
			return fmt.Errorf("llm.ollama.base_url is required for the local provider")
		}
	default:
		return fmt.Errorf("unknown llm provider %q (want cloud or local)", c.LLM.Provider)
	}

	switch c.Storage.Driver {
	case "file", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Game.RoomCount < 1 {
		return fmt.Errorf("game.room_count must be at least 1, got %d", c.Game.RoomCount)
	}
	if c.Expansion.Workers < 1 {
		c.Expansion.Workers = 1
	}
	if c.Expansion.QueueSize < 1 {
		c.Expansion.QueueSize = 1
	}
	return nil
}
