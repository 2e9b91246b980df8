package probe

import (
	"context"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// ICMPProberConfig holds settings for the in-process ICMP echo prober.
type ICMPProberConfig struct {
	// Privileged uses a raw ip4:icmp socket instead of an unprivileged
	// datagram socket (requires CAP_NET_RAW).
	Privileged bool `mapstructure:"privileged"`
}

// ICMPProber sends a single echo request without spawning a process.
type ICMPProber struct {
	host    string
	timeout time.Duration
	config  ICMPProberConfig
	seq     atomic.Uint32
}

var echoPayload = []byte("radio-watchdog")

// NewICMPProber creates a new ICMPProber.
func NewICMPProber(host string, timeout time.Duration, settings map[string]any) (*ICMPProber, error) {
	var config ICMPProberConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &ICMPProber{host: host, timeout: timeout, config: config}, nil
}

// Probe sends one echo request and waits for the matching reply.
func (p *ICMPProber) Probe(ctx context.Context) bool {
	if err := p.echo(ctx); err != nil {
		zlog.Debug().Msgf("probe: icmp echo failed: host=%s error=%v", p.host, err)
		return false
	}
	return true
}

func (p *ICMPProber) echo(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	network := "udp4"
	if p.config.Privileged {
		network = "ip4:icmp"
	}

	resolveCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	ips, err := net.DefaultResolver.LookupIP(resolveCtx, "ip4", p.host)
	if err != nil {
		return errors.Wrap(err, "resolve")
	}
	if len(ips) == 0 {
		return errors.Newf("no IPv4 address for %s", p.host)
	}

	var dst net.Addr = &net.UDPAddr{IP: ips[0]}
	if p.config.Privileged {
		dst = &net.IPAddr{IP: ips[0]}
	}

	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	defer conn.Close()
	// Unblocks the read below when ctx is cancelled before the deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	if err := conn.SetDeadline(deadline); err != nil {
		return errors.Wrap(err, "set deadline")
	}

	id := os.Getpid() & 0xffff
	seq := int(p.seq.Add(1) & 0xffff)
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  seq,
			Data: echoPayload,
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return errors.Wrap(err, "marshal echo")
	}
	if _, err := conn.WriteTo(wb, dst); err != nil {
		return errors.Wrap(err, "send echo")
	}

	rb := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(rb)
		if err != nil {
			return errors.Wrap(err, "read reply")
		}
		rm, err := icmp.ParseMessage(ipv4.ICMPTypeEcho.Protocol(), rb[:n])
		if err != nil {
			continue
		}
		if rm.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		echo, ok := rm.Body.(*icmp.Echo)
		if !ok || echo.Seq != seq {
			continue
		}
		// The kernel rewrites the echo ID on unprivileged sockets and filters
		// replies for us. A raw socket sees every reply on the host.
		if p.config.Privileged && echo.ID != id {
			continue
		}
		return nil
	}
}

// Name returns the probe type.
func (p *ICMPProber) Name() string {
	return "icmp"
}
