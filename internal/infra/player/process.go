package player

import (
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// process is a Handle backed by an os/exec command.
type process struct {
	id    string
	cmd   *exec.Cmd
	grace time.Duration
	start time.Time

	exited atomic.Bool
	done   chan struct{}

	stopOnce sync.Once
	stopErr  error
}

func startProcess(id, binary string, args []string, grace time.Duration) (*process, error) {
	cmd := exec.Command(binary, args...)
	// The player writes straight to our terminal, as it would when run by hand.
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &process{
		id:    id,
		cmd:   cmd,
		grace: grace,
		start: time.Now(),
		done:  make(chan struct{}),
	}

	// Waiter
	go func() {
		err := cmd.Wait()
		p.exited.Store(true)
		close(p.done)
		zlog.Debug().Msgf("player: process exited: id=%s uptime=%s status=%v",
			p.id, time.Since(p.start).Truncate(time.Millisecond), exitStatus(err))
	}()

	return p, nil
}

// ID returns the process identifier.
func (p *process) ID() string {
	return p.id
}

// Alive reports whether the process is still running.
func (p *process) Alive() bool {
	return !p.exited.Load()
}

// Stop sends SIGTERM, waits up to the grace period, then kills.
func (p *process) Stop() error {
	p.stopOnce.Do(func() {
		p.stopErr = p.stop()
	})
	return p.stopErr
}

func (p *process) stop() error {
	if p.exited.Load() {
		return nil
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		zlog.Warn().Msgf("player: SIGTERM failed, killing: id=%s error=%v", p.id, err)
		return p.kill()
	}

	t := time.NewTimer(p.grace)
	defer t.Stop()
	select {
	case <-p.done:
		zlog.Debug().Msgf("player: stopped: id=%s", p.id)
		return nil
	case <-t.C:
		zlog.Warn().Msgf("player: did not exit within %s, killing: id=%s", p.grace, p.id)
		return p.kill()
	}
}

func (p *process) kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "failed to kill player %s", p.id)
	}
	<-p.done
	return nil
}

// pid is only valid after a successful start.
func (p *process) pid() int {
	return p.cmd.Process.Pid
}

func exitStatus(err error) string {
	if err == nil {
		return "exit 0"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.String()
	}
	return err.Error()
}
