package web

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPServerLifecycle(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "up")
	})
	srv := NewHTTPServer("127.0.0.1:0", handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx))
	addr := srv.ListenAddr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "up", string(body))

	require.NoError(t, srv.Stop())
	assert.NoError(t, srv.Stop(), "second stop is a no-op")
	assert.Error(t, srv.Start(ctx), "a stopped server cannot restart")

	_, err = http.Get("http://" + addr + "/")
	assert.Error(t, err)
}

func TestHTTPServerStopReleasesContextWatcher(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", nil)
	require.NoError(t, srv.Start(context.Background()))
	watched := srv.watched

	require.NoError(t, srv.Stop())
	assert.Empty(t, srv.ListenAddr())
	assert.Eventually(t, func() bool {
		select {
		case <-watched:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestHTTPServerStopsWithContext(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))
	cancel()
	assert.Eventually(t, func() bool { return srv.ListenAddr() == "" }, time.Second, 10*time.Millisecond)
}
