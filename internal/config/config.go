package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Completion Completion `yaml:"completion"`
	Ingestion  Ingestion  `yaml:"ingestion"`
	Search     Search     `yaml:"search"`
	Video      Video      `yaml:"video"`
	Auth       Auth       `yaml:"auth"`
	Output     Output     `yaml:"output"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Completion selects and tunes the text-generation provider.
type Completion struct {
	Provider      string `yaml:"provider"`
	Model         string `yaml:"model"`
	OllamaURL     string `yaml:"ollama_url"`
	OpenAIModel   string `yaml:"openai_model"`
	APIKeyEnv     string `yaml:"api_key_env"`
	GeminiModel   string `yaml:"gemini_model"`
	GeminiKeyEnv  string `yaml:"gemini_key_env"`
	VertexProject string `yaml:"vertex_project"`
	VertexRegion  string `yaml:"vertex_region"`
	VertexModel   string `yaml:"vertex_model"`
	MaxTokens     int    `yaml:"max_tokens"`
	MaxInputChars int    `yaml:"max_input_chars"`
}

type Ingestion struct {
	MaxUploadMB     int `yaml:"max_upload_mb"`
	MinContentChars int `yaml:"min_content_chars"`
}

// Search configures the live-info web search backend.
type Search struct {
	Provider      string `yaml:"provider"`
	APIKeyEnv     string `yaml:"api_key_env"`
	EngineIDEnv   string `yaml:"engine_id_env"`
	NewsAPIKeyEnv string `yaml:"newsapi_key_env"`
	NewsFeedURL   string `yaml:"news_feed_url"`
}

type Video struct {
	APIKeyEnv string `yaml:"api_key_env"`
}

type Auth struct {
	JWTSecretEnv string        `yaml:"jwt_secret_env"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
	Mode  string `yaml:"mode"`
}

// ConfigDir returns the XDG config directory for studydeck.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "studydeck")
}

// DataDir returns the XDG data directory for studydeck.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "studydeck")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/studydeck/config.yaml > ./config.yaml
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
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'studydeck init' to create a default config",
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

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Completion: Completion{
			Provider:      "ollama",
			Model:         "qwen2.5:7b",
			OllamaURL:     "http://localhost:11434",
			OpenAIModel:   "gpt-4o-mini",
			APIKeyEnv:     "OPENAI_API_KEY",
			GeminiModel:   "gemini-1.5-flash",
			GeminiKeyEnv:  "GEMINI_API_KEY",
			VertexRegion:  "us-central1",
			VertexModel:   "gemini-1.5-pro",
			MaxTokens:     4096,
			MaxInputChars: 30000,
		},
		Ingestion: Ingestion{
			MaxUploadMB:     25,
			MinContentChars: 50,
		},
		Search: Search{
			Provider:      "google",
			APIKeyEnv:     "GOOGLE_API_KEY",
			EngineIDEnv:   "GOOGLE_CSE_ID",
			NewsAPIKeyEnv: "NEWSAPI_KEY",
			NewsFeedURL:   "https://news.google.com/rss/search",
		},
		Video: Video{APIKeyEnv: "YOUTUBE_API_KEY"},
		Auth: Auth{
			JWTSecretEnv: "STUDYDECK_JWT_SECRET",
			SessionTTL:   7 * 24 * time.Hour,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "info", Mode: "dev"},
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

// MaxUploadBytes is the upload size ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Ingestion.MaxUploadMB) * 1024 * 1024
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
