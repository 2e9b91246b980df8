package failover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/radio-watchdog/internal/infra/player"
)

// fakeClock advances only when told to.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeProber returns a settable result.
type fakeProber struct {
	mu     sync.Mutex
	online bool
	calls  int
}

func (p *fakeProber) Probe(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.online
}

func (p *fakeProber) Name() string { return "fake" }

func (p *fakeProber) Set(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = online
}

func (p *fakeProber) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeHandle is a player handle whose liveness is set by the test.
type fakeHandle struct {
	mu      sync.Mutex
	id      string
	source  string
	files   []string
	alive   bool
	stopped int
}

func (h *fakeHandle) ID() string { return h.id }

func (h *fakeHandle) Alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alive
}

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped++
	h.alive = false
	return nil
}

func (h *fakeHandle) Kill() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alive = false
}

func (h *fakeHandle) Stopped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// fakeBackend records every start and hands out fakeHandles.
type fakeBackend struct {
	mu          sync.Mutex
	handles     []*fakeHandle
	streamErr   error
	backupErr   error
	streamCalls int
	backupCalls int
	backupFiles [][]string
}

var errNoPlayer = errors.New("exec: \"mpv\": executable file not found in $PATH")

func (b *fakeBackend) StartStream(ctx context.Context, url string) (player.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streamCalls++
	if b.streamErr != nil {
		return nil, b.streamErr
	}
	return b.newHandle("stream", nil), nil
}

func (b *fakeBackend) StartBackup(ctx context.Context, files []string) (player.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backupCalls++
	b.backupFiles = append(b.backupFiles, files)
	if b.backupErr != nil {
		return nil, b.backupErr
	}
	if len(files) == 0 {
		return nil, nil
	}
	return b.newHandle("backup", files), nil
}

func (b *fakeBackend) newHandle(source string, files []string) *fakeHandle {
	h := &fakeHandle{
		id:     fmt.Sprintf("%s-%d", source, len(b.handles)+1),
		source: source,
		files:  files,
		alive:  true,
	}
	b.handles = append(b.handles, h)
	return h
}

func (b *fakeBackend) Counts() (stream, backup int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streamCalls, b.backupCalls
}

func (b *fakeBackend) Last() *fakeHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.handles) == 0 {
		return nil
	}
	return b.handles[len(b.handles)-1]
}

func (b *fakeBackend) SetStreamErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streamErr = err
}

// fakeLister returns a fixed file list and counts calls.
type fakeLister struct {
	mu    sync.Mutex
	files []string
	calls int
}

func (l *fakeLister) List() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return append([]string(nil), l.files...)
}

func (l *fakeLister) Set(files ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = files
}

func (l *fakeLister) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
