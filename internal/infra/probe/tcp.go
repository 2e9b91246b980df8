package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// TCPProberConfig holds settings for the TCP connect prober.
type TCPProberConfig struct {
	Port int `mapstructure:"port" default:"53" validate:"gte=1,lte=65535"`
}

// TCPProber treats a completed TCP handshake as connectivity.
// Useful where ICMP is filtered.
type TCPProber struct {
	addr    string
	timeout time.Duration
}

// NewTCPProber creates a new TCPProber.
func NewTCPProber(host string, timeout time.Duration, settings map[string]any) (*TCPProber, error) {
	var config TCPProberConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &TCPProber{
		addr:    net.JoinHostPort(host, strconv.Itoa(config.Port)),
		timeout: timeout,
	}, nil
}

// Probe dials the configured address once.
func (p *TCPProber) Probe(ctx context.Context) bool {
	d := net.Dialer{Timeout: p.timeout}
	conn, err := d.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		zlog.Debug().Msgf("probe: dial failed: addr=%s error=%v", p.addr, err)
		return false
	}
	_ = conn.Close()
	return true
}

// Name returns the probe type.
func (p *TCPProber) Name() string {
	return "tcp"
}
