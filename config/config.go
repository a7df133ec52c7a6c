// Package config provides the YAML configuration schema and loader for the
// rtvoice command.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// TurnDetection selects the initial turn-taking policy.
type TurnDetection string

const (
	TurnManual TurnDetection = "manual"
	TurnVAD    TurnDetection = "voice-activity"
)

// IsValid reports whether t is a recognised turn-detection mode.
func (t TurnDetection) IsValid() bool {
	return t == TurnManual || t == TurnVAD
}

// Config is the root configuration for the rtvoice command. The API key is
// deliberately not part of the file; it comes from the environment.
type Config struct {
	// Model is the realtime model identifier. Empty selects the client
	// default.
	Model string `yaml:"model"`

	// Voice selects the assistant voice.
	Voice string `yaml:"voice"`

	// Instructions is the assistant persona prompt.
	Instructions string `yaml:"instructions"`

	// TranscriptionModel transcribes user input audio. Empty disables input
	// transcription.
	TranscriptionModel string `yaml:"transcription_model"`

	// Greeting is the first user message sent after connecting.
	Greeting string `yaml:"greeting"`

	// TurnDetection is the initial turn mode. Default "manual".
	TurnDetection TurnDetection `yaml:"turn_detection"`

	// MicSampleRate opens the microphone at a non-default rate; captured
	// audio is resampled to 24kHz. Zero uses 24kHz capture directly.
	MicSampleRate int `yaml:"mic_sample_rate"`

	// LogLevel controls verbosity. Default "info".
	LogLevel LogLevel `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Voice:              "coral",
		TranscriptionModel: "whisper-1",
		Greeting:           "Hello!",
		TurnDetection:      TurnManual,
		LogLevel:           LogInfo,
	}
}

// Load reads the YAML configuration file at path and returns a validated
// Config. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. All failures
// found are joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("config: unknown log_level %q", cfg.LogLevel))
	}
	if !cfg.TurnDetection.IsValid() {
		errs = append(errs, fmt.Errorf("config: unknown turn_detection %q", cfg.TurnDetection))
	}
	if cfg.MicSampleRate < 0 {
		errs = append(errs, fmt.Errorf("config: negative mic_sample_rate %d", cfg.MicSampleRate))
	}

	return errors.Join(errs...)
}
