// Package config provides configuration loading for streamtts commands.
// Configuration comes from an optional YAML file with environment
// variable overrides for deployment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP/websocket listener settings.
type ServerConfig struct {
	Bind      string `yaml:"bind"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// EngineConfig holds speech backend settings.
type EngineConfig struct {
	// Mode selects the backend implementation: "mock" or "proc".
	Mode string `yaml:"mode"`
	// Command is the model-runner argv for proc mode.
	Command []string `yaml:"command"`
	Voice   string   `yaml:"voice"`
	Speed   float64  `yaml:"speed"`
	// NativeSampleRate is the rate the backend produces audio at.
	NativeSampleRate int `yaml:"native_sample_rate"`
	// TargetSampleRate is the rate clients receive (16-bit mono PCM).
	TargetSampleRate int `yaml:"target_sample_rate"`
	TimeoutMS        int `yaml:"timeout_ms"`
}

// Config is the top-level streamtts configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Server   ServerConfig `yaml:"server"`
	Engine   EngineConfig `yaml:"engine"`
}

// Default returns a configuration that works with no config file:
// mock backend, 24kHz native, 44.1kHz 16-bit mono output.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Bind:      "0.0.0.0",
			Port:      8000,
			StaticDir: "./static",
		},
		Engine: EngineConfig{
			Mode:             "mock",
			Voice:            "af_heart",
			Speed:            1.0,
			NativeSampleRate: 24000,
			TargetSampleRate: 44100,
			TimeoutMS:        30000,
		},
	}
}

// Load reads configuration from path, applies environment overrides and
// validates the result. An empty path yields Default() plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("STREAMTTS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STREAMTTS_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("STREAMTTS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STREAMTTS_ENGINE"); v != "" {
		cfg.Engine.Mode = v
	}
	if v := os.Getenv("STREAMTTS_VOICE"); v != "" {
		cfg.Engine.Voice = v
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	switch c.Engine.Mode {
	case "mock", "proc":
	default:
		return fmt.Errorf("config: unknown engine mode %q", c.Engine.Mode)
	}
	if c.Engine.Mode == "proc" && len(c.Engine.Command) == 0 {
		return fmt.Errorf("config: proc engine requires a command")
	}
	if c.Engine.NativeSampleRate <= 0 || c.Engine.TargetSampleRate <= 0 {
		return fmt.Errorf("config: sample rates must be positive")
	}
	if c.Engine.Speed < 0.5 || c.Engine.Speed > 2.0 {
		return fmt.Errorf("config: speed %.2f out of range [0.5, 2.0]", c.Engine.Speed)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
