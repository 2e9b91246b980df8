// Package probe provides single-shot connectivity checks.
package probe

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// Prober is the interface for connectivity checks.
// Probe must return within the prober's timeout and reports false on any failure.
type Prober interface {
	Probe(ctx context.Context) bool

	// Name returns the probe type (used in config).
	Name() string
}

// Config selects and parameterizes a prober.
type Config struct {
	Type     string
	Host     string
	Timeout  time.Duration
	Settings map[string]any
}

// New creates the prober named by cfg.Type.
func New(cfg Config) (Prober, error) {
	if cfg.Host == "" {
		return nil, errors.New("probe host is required")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.Newf("probe timeout must be positive: %s", cfg.Timeout)
	}

	var (
		p   Prober
		err error
	)
	switch cfg.Type {
	case "exec", "":
		p, err = NewExecProber(cfg.Host, cfg.Timeout, cfg.Settings)
	case "icmp":
		p, err = NewICMPProber(cfg.Host, cfg.Timeout, cfg.Settings)
	case "tcp":
		p, err = NewTCPProber(cfg.Host, cfg.Timeout, cfg.Settings)
	default:
		return nil, errors.Newf("unsupported probe type: %s", cfg.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s probe", cfg.Type)
	}

	zlog.Info().Msgf("connectivity probe configured: type=%s host=%s timeout=%s", p.Name(), cfg.Host, cfg.Timeout)
	return p, nil
}

// decodeSettings decodes a free-form settings map into out, then applies
// struct defaults and validation.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
