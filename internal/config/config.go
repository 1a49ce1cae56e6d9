package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Audio    AudioConfig    `yaml:"audio"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Training TrainingConfig `yaml:"training"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Polling  PollingConfig  `yaml:"polling"`
	Collab   CollabConfig   `yaml:"collab"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// AudioConfig contains audio processing parameters
type AudioConfig struct {
	TargetSampleRate int     `yaml:"target_sample_rate"`
	HighPassCutoffHz float64 `yaml:"high_pass_cutoff_hz"`
}

// PipelineConfig contains the combine executor configuration
type PipelineConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// TrainingConfig contains training API configuration
type TrainingConfig struct {
	Endpoint      string `yaml:"endpoint"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	Timeout       int    `yaml:"timeout"` // seconds
	MaxRetries    int    `yaml:"max_retries"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// JobsConfig contains job pipeline configuration
type JobsConfig struct {
	MaxRecordings int `yaml:"max_recordings"`
}

// PollingConfig contains job status polling configuration
type PollingConfig struct {
	Interval float64 `yaml:"interval"` // seconds
}

// CollabConfig contains collaboration feed configuration
type CollabConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`
	APIKey       string `yaml:"api_key"`
	DialTimeout  int    `yaml:"dial_timeout"` // seconds
	MaxReconnect int    `yaml:"max_reconnect"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.Training.Validate(); err != nil {
		return fmt.Errorf("training config: %w", err)
	}

	if err := c.Jobs.Validate(); err != nil {
		return fmt.Errorf("jobs config: %w", err)
	}

	if err := c.Polling.Validate(); err != nil {
		return fmt.Errorf("polling config: %w", err)
	}

	if err := c.Collab.Validate(); err != nil {
		return fmt.Errorf("collab config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.TargetSampleRate != 44100 {
		return fmt.Errorf("target_sample_rate must be 44100 Hz for voice training, got %d", a.TargetSampleRate)
	}

	if a.HighPassCutoffHz <= 0 {
		return fmt.Errorf("high_pass_cutoff_hz must be positive, got %f", a.HighPassCutoffHz)
	}

	if a.HighPassCutoffHz >= float64(a.TargetSampleRate)/2 {
		return fmt.Errorf("high_pass_cutoff_hz (%f) must be below the Nyquist frequency (%d)",
			a.HighPassCutoffHz, a.TargetSampleRate/2)
	}

	return nil
}

// Validate validates pipeline configuration
func (p *PipelineConfig) Validate() error {
	if p.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", p.QueueSize)
	}

	return nil
}

// Validate validates training configuration
func (t *TrainingConfig) Validate() error {
	if t.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if t.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty")
	}

	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}

	if t.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", t.MaxRetries)
	}

	if t.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", t.MaxConcurrent)
	}

	return nil
}

// Validate validates jobs configuration
func (j *JobsConfig) Validate() error {
	if j.MaxRecordings < 1 {
		return fmt.Errorf("max_recordings must be at least 1, got %d", j.MaxRecordings)
	}

	return nil
}

// Validate validates polling configuration
func (p *PollingConfig) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %f", p.Interval)
	}

	return nil
}

// Validate validates collaboration feed configuration
func (c *CollabConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.URL == "" {
		return fmt.Errorf("url cannot be empty when collab is enabled")
	}

	if c.DialTimeout < 1 {
		return fmt.Errorf("dial_timeout must be at least 1 second, got %d", c.DialTimeout)
	}

	if c.MaxReconnect < 1 {
		return fmt.Errorf("max_reconnect must be at least 1, got %d", c.MaxReconnect)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetTimeoutDuration returns the training timeout as a time.Duration
func (t *TrainingConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

// GetIntervalDuration returns the polling interval as a time.Duration
func (p *PollingConfig) GetIntervalDuration() time.Duration {
	return time.Duration(p.Interval * float64(time.Second))
}

// GetDialTimeoutDuration returns the feed dial timeout as a time.Duration
func (c *CollabConfig) GetDialTimeoutDuration() time.Duration {
	return time.Duration(c.DialTimeout) * time.Second
}
