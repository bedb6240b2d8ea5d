// Package gateway validates, fingerprints and serves the single packed frame
// slot. The slot starts empty and is overwritten by every accepted Store;
// there is no delete.
package gateway

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rook-computer/epaper/internal/render"
	"github.com/rook-computer/epaper/internal/store"
)

const DefaultKey = "latest_binary"

const (
	metaETag     = "etag"
	metaStoredAt = "stored_at"
	metaSize     = "size"
)

type Gateway struct {
	store        store.BlobStore
	key          string
	expectedSize int
	now          func() time.Time
	metrics      *metrics
}

type Option func(*Gateway)

func WithKey(key string) Option {
	return func(g *Gateway) {
		if key != "" {
			g.key = key
		}
	}
}

func WithExpectedSize(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.expectedSize = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// WithRegisterer registers the gateway counters on reg. Without it the
// counters are kept but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Gateway) { g.metrics = newMetrics(reg) }
}

func New(s store.BlobStore, opts ...Option) *Gateway {
	g := &Gateway{
		store:        s,
		key:          DefaultKey,
		expectedSize: render.PackedSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = newMetrics(nil)
	}
	return g
}

type StoreResult struct {
	ETag     string
	Size     int
	StoredAt time.Time
}

type RetrieveResult struct {
	Data        []byte
	ETag        string
	StoredAt    time.Time
	NotModified bool
}

// ComputeETag returns the quoted lowercase hex SHA-1 of data.
func ComputeETag(data []byte) string {
	sum := sha1.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func (g *Gateway) ExpectedSize() int { return g.expectedSize }

// Store overwrites the slot with data. Nothing is written when the length is
// wrong.
func (g *Gateway) Store(ctx context.Context, data []byte) (StoreResult, error) {
	if len(data) != g.expectedSize {
		g.metrics.sizeMismatch.Inc()
		return StoreResult{}, &SizeMismatchError{Expected: g.expectedSize, Actual: len(data)}
	}

	res := StoreResult{
		ETag:     ComputeETag(data),
		Size:     len(data),
		StoredAt: g.now().UTC(),
	}
	obj := store.Object{
		Data: data,
		Meta: map[string]string{
			metaETag:     res.ETag,
			metaStoredAt: res.StoredAt.Format(time.RFC3339Nano),
			metaSize:     strconv.Itoa(res.Size),
		},
	}
	if err := g.store.Put(ctx, g.key, obj); err != nil {
		return StoreResult{}, errors.Wrap(err, "gateway: store frame")
	}
	g.metrics.stores.Inc()
	return res, nil
}

// Retrieve returns the current frame. When clientTag equals the stored tag
// exactly the result is NotModified and carries no data.
func (g *Gateway) Retrieve(ctx context.Context, clientTag string) (RetrieveResult, error) {
	obj, err := g.store.Get(ctx, g.key)
	if errors.Is(err, store.ErrNotFound) {
		g.metrics.retrievals.WithLabelValues(retrieveNotFound).Inc()
		return RetrieveResult{}, ErrNotFound
	} else if err != nil {
		return RetrieveResult{}, errors.Wrap(err, "gateway: load frame")
	}

	tag := obj.Meta[metaETag]
	if tag == "" {
		tag = ComputeETag(obj.Data)
	}
	var storedAt time.Time
	if raw, ok := obj.Meta[metaStoredAt]; ok {
		storedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}

	if clientTag != "" && clientTag == tag {
		g.metrics.retrievals.WithLabelValues(retrieveNotModified).Inc()
		return RetrieveResult{ETag: tag, StoredAt: storedAt, NotModified: true}, nil
	}
	g.metrics.retrievals.WithLabelValues(retrieveOK).Inc()
	return RetrieveResult{Data: obj.Data, ETag: tag, StoredAt: storedAt}, nil
}
