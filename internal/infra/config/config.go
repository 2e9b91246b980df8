// Package config provides configuration loading from YAML files.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	StreamURL          string        `yaml:"stream_url" default:"https://azuracast.turvilleweb.com/listen/rcm_radio/radio.mp3" validate:"required,url"`
	OfflineGracePeriod time.Duration `yaml:"offline_grace_period" default:"60s" validate:"gt=0s"`
	TickInterval       time.Duration `yaml:"tick_interval" default:"5s" validate:"gt=0s"`
	Backup             BackupConfig  `yaml:"backup"`
	Probe              ProbeConfig   `yaml:"probe"`
	Player             PlayerConfig  `yaml:"player"`
	Device             DeviceConfig  `yaml:"device"`
	Metrics            MetricsConfig `yaml:"metrics"`
}

// BackupConfig represents where local fallback audio is looked up.
type BackupConfig struct {
	Directory  string   `yaml:"directory" default:"/home/radio/radio_backup/" validate:"required"`
	Extensions []string `yaml:"extensions" default:"[\".mp3\",\".m4a\",\".flac\"]" validate:"required,min=1,dive,required"`
}

// ProbeConfig represents the connectivity probe configuration.
// Settings are decoded by the selected probe type.
type ProbeConfig struct {
	Type     string         `yaml:"type" default:"exec" validate:"oneof=exec icmp tcp"`
	Host     string         `yaml:"host" default:"8.8.8.8" validate:"required"`
	Timeout  time.Duration  `yaml:"timeout" default:"2s" validate:"gt=0s"`
	Settings map[string]any `yaml:"settings"`
}

// PlayerConfig represents the external media player configuration.
type PlayerConfig struct {
	Binary      string        `yaml:"binary" default:"mpv" validate:"required"`
	AudioDevice string        `yaml:"audio_device" default:"alsa/plughw:0,0"`
	ExtraArgs   []string      `yaml:"extra_args"`
	LoopFlag    string        `yaml:"loop_flag" default:"--loop-playlist=inf"`
	StopGrace   time.Duration `yaml:"stop_grace" default:"5s" validate:"gt=0s"`
	IdleDelay   time.Duration `yaml:"idle_delay" default:"10s" validate:"gte=0s"`
}

// DeviceConfig represents the audio output device setup.
type DeviceConfig struct {
	Disabled       bool          `yaml:"disabled"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" default:"5s" validate:"gt=0s"`
	Methods        [][]string    `yaml:"methods" validate:"dive,min=1"`
}

// MetricsConfig represents the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Unknown keys are rejected so a misspelled setting is not silently dropped.
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finish applies environment overrides, defaults and validation.
func (c *Config) finish() error {
	c.overrideFromEnv()

	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if len(c.Device.Methods) == 0 {
		c.Device.Methods = DefaultDeviceMethods()
	}

	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("RADIO_WATCHDOG_STREAM_URL"); v != "" {
		c.StreamURL = v
	}
	if v := os.Getenv("RADIO_WATCHDOG_BACKUP_DIR"); v != "" {
		c.Backup.Directory = v
	}
	if v := os.Getenv("RADIO_WATCHDOG_PROBE_HOST"); v != "" {
		c.Probe.Host = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// DefaultDeviceMethods returns the Raspberry Pi headphone-jack setup commands,
// tried in order: older firmware, newer firmware, then raspi-config.
func DefaultDeviceMethods() [][]string {
	return [][]string{
		{"amixer", "cset", "numid=3", "1"},
		{"amixer", "-c", "0", "sset", "Headphone", "100%"},
		{"raspi-config", "nonint", "do_audio", "1"},
	}
}
