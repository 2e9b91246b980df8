// Package player launches and supervises the external audio player process.
package player

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// ErrLaunchFailed marks errors where the player process could not be started.
var ErrLaunchFailed = errors.New("player launch failed")

// Handle is a reference to a running (or exited) player process.
type Handle interface {
	// ID identifies the process in logs.
	ID() string
	// Alive reports whether the process is still running. Never blocks.
	Alive() bool
	// Stop terminates the process and waits for it to exit.
	// Calling Stop on an exited process is a no-op.
	Stop() error
}

// Backend starts player processes for the two audio sources.
type Backend interface {
	// StartStream launches the player for a network stream and returns
	// without waiting for playback to begin.
	StartStream(ctx context.Context, url string) (Handle, error)
	// StartBackup launches the player looping files. With no files it waits
	// the idle delay and returns a nil Handle and nil error.
	StartBackup(ctx context.Context, files []string) (Handle, error)
}

// Config holds player configuration.
type Config struct {
	Binary      string        // Player executable, e.g. "mpv"
	AudioDevice string        // Passed as --audio-device when non-empty
	ExtraArgs   []string      // Appended before the sources
	LoopFlag    string        // Flag that loops the whole file list
	StopGrace   time.Duration // Wait after SIGTERM before SIGKILL
	IdleDelay   time.Duration // Pause when there is nothing to play
}

// ProcessBackend runs an mpv-compatible player as a child process.
type ProcessBackend struct {
	config Config
}

// NewProcessBackend creates a new ProcessBackend.
func NewProcessBackend(config Config) *ProcessBackend {
	if config.StopGrace <= 0 {
		config.StopGrace = 5 * time.Second
	}
	return &ProcessBackend{config: config}
}

// StartStream launches the player against url.
func (b *ProcessBackend) StartStream(ctx context.Context, url string) (Handle, error) {
	if url == "" {
		return nil, errors.Mark(errors.New("stream url is empty"), ErrLaunchFailed)
	}
	return b.launch("stream", b.streamArgs(url))
}

// StartBackup launches the player looping through files.
func (b *ProcessBackend) StartBackup(ctx context.Context, files []string) (Handle, error) {
	if len(files) == 0 {
		zlog.Warn().Msgf("No backup files found! Waiting %s before retrying", b.config.IdleDelay)
		t := time.NewTimer(b.config.IdleDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		return nil, nil
	}
	return b.launch("backup", b.backupArgs(files))
}

func (b *ProcessBackend) baseArgs() []string {
	args := []string{"--no-video"}
	if b.config.AudioDevice != "" {
		args = append(args, "--audio-device="+b.config.AudioDevice)
	}
	return append(args, b.config.ExtraArgs...)
}

func (b *ProcessBackend) streamArgs(url string) []string {
	return append(b.baseArgs(), url)
}

func (b *ProcessBackend) backupArgs(files []string) []string {
	args := b.baseArgs()
	if b.config.LoopFlag != "" {
		args = append(args, b.config.LoopFlag)
	}
	return append(args, files...)
}

func (b *ProcessBackend) launch(source string, args []string) (Handle, error) {
	id := uuid.New().String()
	p, err := startProcess(id, b.config.Binary, args, b.config.StopGrace)
	if err != nil {
		zlog.Error().Msgf("player: failed to start: source=%s binary=%s error=%v", source, b.config.Binary, err)
		return nil, errors.Mark(
			errors.Wrapf(err, "failed to start %s player (%s)", source, b.config.Binary),
			ErrLaunchFailed,
		)
	}
	zlog.Debug().Msgf("player: started: source=%s id=%s pid=%d args=%q", source, id, p.pid(), args)
	return p, nil
}
