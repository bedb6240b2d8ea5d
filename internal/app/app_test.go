package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/epaper/internal/config"
	"github.com/rook-computer/epaper/internal/render"
)

func TestLogrusLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogrusLogger(&buf, "json", "info")
	require.NoError(t, err)

	logger.Infof("gateway", "stored %d bytes", 48000)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gateway", entry["component"])
	assert.Equal(t, "stored 48000 bytes", entry["msg"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogrusLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogrusLogger(&buf, "text", "error")
	require.NoError(t, err)

	logger.Infof("web", "hidden")
	assert.Empty(t, buf.String())
	logger.Errorf("web", "shown")
	assert.Contains(t, buf.String(), "component=web")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogrusLoggerRejectsBadSettings(t *testing.T) {
	_, err := NewLogrusLogger(io.Discard, "xml", "info")
	assert.Error(t, err)
	_, err = NewLogrusLogger(io.Discard, "text", "loud")
	assert.Error(t, err)
}

func TestAppServesUploads(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := New(cfg, nil)
	require.NoError(t, a.Start(ctx))
	t.Cleanup(func() { _ = a.Stop() })
	require.NotEmpty(t, a.Addr)
	base := "http://" + a.Addr

	resp, err := http.Post(base+"/api/upload", "application/octet-stream", bytes.NewReader(make([]byte, render.PackedSize)))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/api/image")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Len(t, data, render.PackedSize)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	text, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.True(t, strings.Contains(string(text), "epaper_gateway_stores_total 1"))
	assert.True(t, strings.Contains(string(text), "go_goroutines"))

	assert.Error(t, a.Start(ctx), "second start is rejected")
	require.NoError(t, a.Stop())
}

func TestAppStartFailsOnBadStore(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	cfg.Store.Driver = "file"
	cfg.Store.Dir = ""

	err := New(cfg, nil).Start(context.Background())
	assert.Error(t, err)
}
