package engine

import (
	"log/slog"
	"time"
)

// Config holds speech backend configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Command is the model-runner argv for the proc backend.
	Command []string

	// Voice selects the backend voice.
	Voice string

	// Speed is the speech rate multiplier (0.5-2.0, 1.0 = normal).
	Speed float64

	// SampleRate is the native rate the backend produces audio at.
	SampleRate int

	// Timeout bounds a single synthesis call.
	Timeout time.Duration

	// Logger is the structured logger for the backend.
	Logger *slog.Logger
}

// Option is a functional option for configuring backends.
type Option func(*Config)

// WithCommand sets the model-runner argv for the proc backend.
func WithCommand(argv []string) Option {
	return func(c *Config) {
		c.Command = argv
	}
}

// WithVoice sets the voice name.
func WithVoice(voice string) Option {
	return func(c *Config) {
		c.Voice = voice
	}
}

// WithSpeed sets the speech rate multiplier.
func WithSpeed(speed float64) Option {
	return func(c *Config) {
		c.Speed = speed
	}
}

// WithSampleRate sets the backend's native sample rate.
func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithTimeout bounds a single synthesis call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLogger sets the structured logger for the backend.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Voice:      "af_heart",
		Speed:      1.0,
		SampleRate: 24000,
		Timeout:    30 * time.Second,
		Logger:     slog.Default(),
	}
}

// Apply applies the given options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
