package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API   APIConfig   `mapstructure:"api"`
	Token TokenConfig `mapstructure:"token"`
	Log   LogConfig   `mapstructure:"log"`
	Poll  PollConfig  `mapstructure:"poll"`
	Stub  StubConfig  `mapstructure:"stub"`
}

type APIConfig struct {
	// BaseURL is the backend API root, e.g. https://api.example.com/api
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TokenConfig struct {
	// Path is the file holding the persisted bearer token. Only the
	// session manager writes to it.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	Output      string `mapstructure:"output"`
	Development bool   `mapstructure:"development"`
}

type PollConfig struct {
	// Interval between automatic payment status checks.
	Interval time.Duration `mapstructure:"interval"`
}

type StubConfig struct {
	// Addr is the listen address for the local stub API server.
	Addr string `mapstructure:"addr"`
}

// LoadConfig reads configuration from CONFIG_PATH (default
// ./configs/portal.yaml) with PORTAL_* environment overrides. A missing
// config file is not an error; defaults and environment apply.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("token.path", defaultTokenPath())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.development", false)
	v.SetDefault("poll.interval", 10*time.Second)
	v.SetDefault("stub.addr", ":8000")

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/portal.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	v.SetConfigFile(absPath)
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && fileExists(absPath) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// An explicitly empty token path falls back to the default location.
	if cfg.Token.Path == "" {
		cfg.Token.Path = defaultTokenPath()
	}

	return &cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".portal-token"
	}
	return filepath.Join(dir, "portal", "token")
}
