package probe

import (
	"context"
	"math"
	"os/exec"
	"strconv"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// ExecProberConfig holds settings for the ping-binary prober.
type ExecProberConfig struct {
	Binary string `mapstructure:"binary" default:"ping" validate:"required"`
	Count  int    `mapstructure:"count" default:"1" validate:"gte=1,lte=10"`
}

// ExecProber runs the system ping binary once per probe.
type ExecProber struct {
	host    string
	timeout time.Duration
	config  ExecProberConfig
}

// NewExecProber creates a new ExecProber.
func NewExecProber(host string, timeout time.Duration, settings map[string]any) (*ExecProber, error) {
	var config ExecProberConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &ExecProber{host: host, timeout: timeout, config: config}, nil
}

// Probe runs `ping -c <count> -W <seconds> <host>` and reports whether it exited zero.
func (p *ExecProber) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.deadline())
	defer cancel()

	cmd := exec.CommandContext(ctx, p.config.Binary, p.args()...)
	if err := cmd.Run(); err != nil {
		zlog.Debug().Msgf("probe: ping failed: host=%s error=%v", p.host, err)
		return false
	}
	return true
}

// deadline bounds the whole ping run. ping sends count packets one second
// apart and -W bounds the wait for each reply; the extra second covers DNS
// lookups and process startup.
func (p *ExecProber) deadline() time.Duration {
	count := time.Duration(p.config.Count)
	return p.timeout*count + (count-1)*time.Second + time.Second
}

func (p *ExecProber) args() []string {
	wait := int(math.Ceil(p.timeout.Seconds()))
	if wait < 1 {
		wait = 1
	}
	return []string{
		"-c", strconv.Itoa(p.config.Count),
		"-W", strconv.Itoa(wait),
		p.host,
	}
}

// Name returns the probe type.
func (p *ExecProber) Name() string {
	return "exec"
}
