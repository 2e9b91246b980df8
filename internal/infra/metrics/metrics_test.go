package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/radio-watchdog/internal/app/failover"
)

func TestMetrics_Observe(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	events := []failover.Event{
		{Type: failover.EventProbe, Mode: failover.ModeStreaming, Online: true},
		{Type: failover.EventProbe, Mode: failover.ModeStreaming, Online: false},
		{Type: failover.EventProbe, Mode: failover.ModeStreaming, Online: false},
		{Type: failover.EventModeChanged, Mode: failover.ModeBackup, From: failover.ModeStreaming, At: at},
		{Type: failover.EventBackupEmpty, Mode: failover.ModeBackup},
		{Type: failover.EventPlayerRestarted, Mode: failover.ModeBackup},
		{Type: failover.EventLaunchFailed, Mode: failover.ModeBackup},
		{Type: failover.EventStopped, Mode: failover.ModeBackup},
	}
	for _, e := range events {
		m.Observe(e)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.mode))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.online))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.probesTotal.WithLabelValues("up")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.probesTotal.WithLabelValues("down")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.switchesTotal.WithLabelValues("backup")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.switchesTotal.WithLabelValues("streaming")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.restartsTotal.WithLabelValues("backup")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.launchFailures.WithLabelValues("backup")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.backupEmpty))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastTransitionS))
}

func TestMetrics_Serve(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.Observe(failover.Event{Type: failover.EventProbe, Online: true})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := m.Serve(addr)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	assert.True(t, strings.Contains(body, `radio_watchdog_probes_total{result="up"} 1`), body)
	assert.Contains(t, body, "radio_watchdog_online 1")
}
