// Package daemon holds the app configuration: a TOML file under the
// data directory, overlaid on defaults. The chat API key itself never
// lives in the file — only the name of the environment variable that
// carries it, with .env supported for development.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Chat    ChatConfig    `toml:"chat"`
	Render  RenderConfig  `toml:"render"`
	Export  ExportConfig  `toml:"export"`
}

// APIConfig controls the local HTTP server.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// StorageConfig locates the local database.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// ChatConfig controls the chat-completion backend.
type ChatConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	APIKeyEnv      string `toml:"api_key_env"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the per-request ceiling.
func (c ChatConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RenderConfig controls image rendering.
type RenderConfig struct {
	// FontPath optionally points at a serif TTF with CJK coverage for
	// body text. Empty uses the embedded face.
	FontPath string `toml:"font_path"`
}

// ExportConfig controls where generated downloads land.
type ExportConfig struct {
	Dir string `toml:"dir"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	home := dataHome()
	return Config{
		API:     APIConfig{Host: "127.0.0.1", Port: 8490},
		Storage: StorageConfig{Dir: home},
		Chat: ChatConfig{
			BaseURL:        "https://api.deepseek.com",
			Model:          "deepseek-chat",
			APIKeyEnv:      "DEEPSEEK_API_KEY",
			TimeoutSeconds: 30,
		},
		Export: ExportConfig{Dir: filepath.Join(home, "exports")},
	}
}

// Load reads the TOML file at path over the defaults. A missing file is
// not an error — the defaults stand. A .env next to the working
// directory is loaded first so the key variable can come from there.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path == "" {
		path = filepath.Join(dataHome(), "config.toml")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// APIKey resolves the chat API key from the configured environment
// variable. Empty means the AI features are disabled.
func (c Config) APIKey() string { return os.Getenv(c.Chat.APIKeyEnv) }

func dataHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".debtbook"
	}
	return filepath.Join(home, ".debtbook")
}
