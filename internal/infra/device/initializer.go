// Package device configures the system audio output before playback starts.
package device

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Runner runs a single configuration command. Replaceable in tests.
type Runner func(ctx context.Context, name string, args ...string) error

// Initializer tries an ordered list of output-configuration commands.
type Initializer struct {
	methods [][]string
	timeout time.Duration
	run     Runner
}

// NewInitializer creates an Initializer. Each method is a command line; the
// first element is the executable.
func NewInitializer(methods [][]string, attemptTimeout time.Duration) *Initializer {
	return &Initializer{
		methods: methods,
		timeout: attemptTimeout,
		run:     runCommand,
	}
}

// ConfigureOutput runs methods in order and stops at the first success.
// Failure is never fatal: it reports which method won, or "" if none did.
func (i *Initializer) ConfigureOutput(ctx context.Context) string {
	for _, m := range i.methods {
		if len(m) == 0 {
			continue
		}
		cmdline := strings.Join(m, " ")
		if err := i.attempt(ctx, m); err != nil {
			zlog.Debug().Msgf("device: method failed: cmd=%q error=%v", cmdline, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		zlog.Info().Msgf("Audio output set using: %s", cmdline)
		return cmdline
	}
	zlog.Warn().Msg("Could not set audio output to 3.5mm jack. Audio may not play on the intended device.")
	return ""
}

func (i *Initializer) attempt(ctx context.Context, m []string) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()
	if err := i.run(ctx, m[0], m[1:]...); err != nil {
		if ctx.Err() != nil {
			return errors.Wrapf(err, "timed out after %s", i.timeout)
		}
		return err
	}
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	// stdout and stderr stay nil, so output goes to the null device
	return exec.CommandContext(ctx, name, args...).Run()
}
