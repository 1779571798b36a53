// Package config loads folio settings. Values come from built-in defaults,
// then an optional TOML file, then environment variables; command-line flags
// are applied last by the binaries.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/RichardoC/folio/internal/gateway"
	"github.com/pkg/errors"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "folio.toml"

type Config struct {
	Server ServerConfig `toml:"server"`
	LLM    LLMConfig    `toml:"llm"`
	Client ClientConfig `toml:"client"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	DBPath         string   `toml:"db_path"`
	PortfolioFile  string   `toml:"portfolio_file"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// RateLimit is the number of chat requests a client may make per window.
	RateLimit      int `toml:"rate_limit"`
	RateWindowSecs int `toml:"rate_window_secs"`
}

type LLMConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	APIKey  string `toml:"api_key"`
}

type ClientConfig struct {
	APIURL      string `toml:"api_url"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:   ":8000",
			DBPath: "folio.db",
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
			RateLimit:      20,
			RateWindowSecs: 60,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
		},
		Client: ClientConfig{
			APIURL:      gateway.DefaultBaseURL,
			TimeoutSecs: int(gateway.DefaultTimeout / time.Second),
		},
	}
}

// Load builds the configuration. An empty path falls back to DefaultFile if
// it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrapf(err, "load config %s", path)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FOLIO_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FOLIO_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("FOLIO_PORTFOLIO_FILE"); v != "" {
		cfg.Server.PortfolioFile = v
	}
	if v := os.Getenv("FOLIO_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("FOLIO_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("FOLIO_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := firstEnv("GROQ_API_KEY", "OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := firstEnv("FOLIO_API_URL", "VITE_API_URL"); v != "" {
		cfg.Client.APIURL = v
	}
}

func (c *Config) Validate() error {
	if c.Server.RateLimit <= 0 {
		return errors.New("server.rate_limit must be positive")
	}
	if c.Server.RateWindowSecs <= 0 {
		return errors.New("server.rate_window_secs must be positive")
	}
	if c.Client.TimeoutSecs <= 0 {
		return errors.New("client.timeout_secs must be positive")
	}
	return nil
}

func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Server.RateWindowSecs) * time.Second
}

func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.Client.TimeoutSecs) * time.Second
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
