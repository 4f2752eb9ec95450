//go:build linux
// +build linux

package node

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/OmriNaor/chatServer/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestReactor(t *testing.T, ctx context.Context) (string, *Reactor, chan error) {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	reactor, err := NewReactor(ctx, ln, UpperASCII, 4096)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- reactor.Run() }()

	return ln.Addr().String(), reactor, done
}

func waitStopped(t *testing.T, done chan error) {
	t.Helper()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reactor did not stop")
	}
}

func TestEndToEndBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, _, done := startTestReactor(t, ctx)

	b, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer b.Close()

	a, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer a.Close()

	// Let the loop accept both before the first payload arrives.
	time.Sleep(100 * time.Millisecond)

	_, err = a.Write([]byte("hi"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	require.NoError(t, b.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := b.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "HI", string(buf[:n]))

	// The sender never receives a copy of its own message.
	require.NoError(t, a.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, err = a.Read(buf)
	var nerr net.Error
	require.ErrorAs(t, err, &nerr)
	assert.True(t, nerr.Timeout())

	// A leaves; the server keeps relaying between the clients that
	// remain.
	require.NoError(t, a.Close())
	time.Sleep(100 * time.Millisecond)

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	time.Sleep(100 * time.Millisecond)

	_, err = b.Write([]byte("ok"))
	require.NoError(t, err)

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err = c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(buf[:n]))

	cancel()
	waitStopped(t, done)

	// Teardown closed every descriptor, so B now sees EOF.
	require.NoError(t, b.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = b.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStopWithNoConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, reactor, done := startTestReactor(t, ctx)

	cancel()
	waitStopped(t, done)
	assert.Equal(t, 0, reactor.Pool().Count())
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestServerRunServesMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewServer(cfg)
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	url := fmt.Sprintf("http://%s%s", cfg.MetricsAddr(), cfg.Metrics.Path)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	waitStopped(t, done)
}
