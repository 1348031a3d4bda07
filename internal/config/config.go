package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for Inkwell
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds the local gateway configuration
type ServerConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// BackendConfig holds the notebook backend connection settings
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

// ChatConfig holds chat engine defaults
type ChatConfig struct {
	DefaultModel string `mapstructure:"default_model"`
	// SettingsURL is where credential errors send the user to fix keys.
	SettingsURL string `mapstructure:"settings_url"`
}

// ArchiveConfig holds the local transcript archive configuration
type ArchiveConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Path string `mapstructure:"path"`
	Prod bool   `mapstructure:"prod"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("INKWELL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5055)
	v.SetDefault("server.api_key", "")

	v.SetDefault("backend.base_url", "http://localhost:5056/api")
	v.SetDefault("backend.token", "")

	v.SetDefault("chat.default_model", "")
	v.SetDefault("chat.settings_url", "/settings/models")

	v.SetDefault("archive.path", "./data/inkwell.db")

	v.SetDefault("log.path", "./logs/inkwell.log")
	v.SetDefault("log.prod", false)
}

// Address returns the gateway listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
