package failover

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/radio-watchdog/internal/infra/player"
	"github.com/osa030/radio-watchdog/internal/infra/probe"
)

// Config holds controller configuration.
type Config struct {
	StreamURL          string
	OfflineGracePeriod time.Duration // Sustained offline time before switching to backup
	TickInterval       time.Duration // Sampling cadence
}

// FileLister enumerates backup files. Called on every backup start.
type FileLister interface {
	List() []string
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	Mode         Mode
	LastOnlineAt time.Time
	HandleID     string // Empty when no player is running
	Alive        bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock used for grace period accounting.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller owns the playback mode and the single player slot.
// All state changes happen on the goroutine calling Start, Tick and Run;
// mu only makes Snapshot safe to call from elsewhere.
type Controller struct {
	mu sync.RWMutex

	mode         Mode
	lastOnlineAt time.Time
	handle       player.Handle

	config  Config
	prober  probe.Prober
	backend player.Backend
	files   FileLister
	now     func() time.Time

	eventCh chan Event
	closed  bool
}

// NewController creates a new failover controller.
func NewController(config Config, prober probe.Prober, backend player.Backend, files FileLister, opts ...Option) *Controller {
	c := &Controller{
		mode:    ModeStreaming,
		config:  config,
		prober:  prober,
		backend: backend,
		files:   files,
		now:     time.Now,
		eventCh: make(chan Event, 32),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{Mode: c.mode, LastOnlineAt: c.lastOnlineAt}
	if c.handle != nil {
		s.HandleID = c.handle.ID()
		s.Alive = c.handle.Alive()
	}
	return s
}

// Run starts streaming and samples until ctx is cancelled, then stops the
// player and returns nil.
func (c *Controller) Run(ctx context.Context) error {
	c.Start(ctx)

	for {
		// Cancellation checkpoint
		if ctx.Err() != nil {
			c.shutdown()
			return nil
		}

		c.Tick(ctx)

		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-time.After(c.config.TickInterval):
		}
	}
}

// Start puts the controller in streaming mode, treats now as the last time
// connectivity was seen and launches the stream.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.mode = ModeStreaming
	c.lastOnlineAt = c.now()
	c.mu.Unlock()

	zlog.Info().Msgf("Starting in %s mode: url=%s", ModeStreaming, c.config.StreamURL)
	c.startCurrent(ctx)
}

// Tick runs one sampling iteration: probe, apply the mode policy, then
// restart the player if it is not running.
func (c *Controller) Tick(ctx context.Context) {
	online := c.prober.Probe(ctx)
	now := c.now()
	c.sendEvent(Event{Type: EventProbe, Mode: c.mode, Online: online, At: now})

	// A start attempted in this tick is never retried in the same tick.
	attempted := false

	if online {
		c.mu.Lock()
		c.lastOnlineAt = now
		c.mu.Unlock()

		if c.mode == ModeBackup {
			zlog.Info().Msg("Internet restored. Switching to stream.")
			c.switchTo(ctx, ModeStreaming, now)
			attempted = true
		}
	} else if c.mode == ModeStreaming && now.Sub(c.lastOnlineAt) > c.config.OfflineGracePeriod {
		zlog.Warn().Msgf("Internet down for over %s. Switching to backup files.", c.config.OfflineGracePeriod)
		c.switchTo(ctx, ModeBackup, now)
		attempted = true
	}

	if attempted || ctx.Err() != nil {
		return
	}

	if c.handle != nil && c.handle.Alive() {
		return
	}

	if c.handle != nil {
		zlog.Warn().Msgf("Player stopped unexpectedly. Restarting... mode=%s id=%s", c.mode, c.handle.ID())
	} else {
		zlog.Info().Msgf("No player running. Starting %s playback.", c.mode)
	}
	if c.startCurrent(ctx) {
		c.sendEvent(Event{Type: EventPlayerRestarted, Mode: c.mode, HandleID: c.handleID(), At: now})
	}
}

// switchTo stops the current player and starts the source for mode.
func (c *Controller) switchTo(ctx context.Context, mode Mode, now time.Time) {
	from := c.mode
	c.stopHandle()

	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	c.sendEvent(Event{Type: EventModeChanged, Mode: mode, From: from, At: now})
	c.startCurrent(ctx)
}

// startCurrent launches the player for the current mode and reports whether
// a player now occupies the slot. On failure or an empty backup set the slot
// is left empty for a later tick to refill.
func (c *Controller) startCurrent(ctx context.Context) bool {
	var (
		h   player.Handle
		err error
	)
	switch c.mode {
	case ModeStreaming:
		h, err = c.backend.StartStream(ctx, c.config.StreamURL)
	case ModeBackup:
		h, err = c.backend.StartBackup(ctx, c.files.List())
	}

	if err != nil {
		zlog.Error().Msgf("Failed to start %s player, retrying next tick: %v", c.mode, err)
		h = nil
		c.sendEvent(Event{Type: EventLaunchFailed, Mode: c.mode, Err: err, At: c.now()})
	} else if h == nil {
		c.sendEvent(Event{Type: EventBackupEmpty, Mode: c.mode, At: c.now()})
	}

	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()
	return h != nil
}

// stopHandle stops the current player, if any, and empties the slot.
func (c *Controller) stopHandle() {
	if c.handle == nil {
		return
	}
	if err := c.handle.Stop(); err != nil {
		zlog.Warn().Msgf("Failed to stop player: id=%s error=%v", c.handle.ID(), err)
	}
	c.mu.Lock()
	c.handle = nil
	c.mu.Unlock()
}

func (c *Controller) handleID() string {
	if c.handle == nil {
		return ""
	}
	return c.handle.ID()
}

func (c *Controller) shutdown() {
	zlog.Info().Msg("Exiting...")
	id := c.handleID()
	c.stopHandle()
	c.sendEvent(Event{Type: EventStopped, Mode: c.mode, HandleID: id, At: c.now()})
}

// Close closes the event channel. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.eventCh)
}

// sendEvent sends an event without blocking.
func (c *Controller) sendEvent(e Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		// Channel full, drop event
	}
}
