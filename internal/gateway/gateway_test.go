package gateway

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/epaper/internal/render"
	"github.com/rook-computer/epaper/internal/store"
)

const zerosETag = `"a8a3677bbd60c531716a0df55b7d2d63d32b0255"`

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestComputeETag(t *testing.T) {
	assert.Equal(t, zerosETag, ComputeETag(make([]byte, render.PackedSize)))
	assert.Equal(t, `"3aae22ad9d480c1e651cd8f4563bf4f63f626864"`, ComputeETag(bytes.Repeat([]byte{0xAB}, render.PackedSize)))
}

func TestStoreRejectsWrongSize(t *testing.T) {
	s := store.NewMemoryStore()
	g := New(s)
	ctx := context.Background()

	for _, n := range []int{0, 1, render.PackedSize - 1, render.PackedSize + 1} {
		_, err := g.Store(ctx, make([]byte, n))
		require.Error(t, err)
		assert.True(t, IsSizeMismatch(err))

		var sm *SizeMismatchError
		require.True(t, errors.As(err, &sm))
		assert.Equal(t, render.PackedSize, sm.Expected)
		assert.Equal(t, n, sm.Actual)
	}

	_, err := g.Retrieve(ctx, "")
	assert.True(t, IsNotFound(err), "nothing was written")
}

func TestSizeMismatchMessage(t *testing.T) {
	err := &SizeMismatchError{Expected: 48000, Actual: 47999}
	assert.Equal(t, "Invalid file size. Expected 48000 bytes, got 47999.", err.Error())
}

func TestStoreThenRetrieve(t *testing.T) {
	s := store.NewMemoryStore()
	g := New(s, WithClock(fixedClock))
	ctx := context.Background()

	data := make([]byte, render.PackedSize)
	res, err := g.Store(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, zerosETag, res.ETag)
	assert.Equal(t, render.PackedSize, res.Size)
	assert.Equal(t, fixedClock(), res.StoredAt)

	obj, err := s.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, zerosETag, obj.Meta["etag"])
	assert.Equal(t, "48000", obj.Meta["size"])
	assert.Equal(t, "2024-03-01T12:00:00Z", obj.Meta["stored_at"])

	got, err := g.Retrieve(ctx, "")
	require.NoError(t, err)
	assert.False(t, got.NotModified)
	assert.Equal(t, data, got.Data)
	assert.Equal(t, zerosETag, got.ETag)
	assert.Equal(t, fixedClock(), got.StoredAt)
}

func TestConditionalRetrieve(t *testing.T) {
	g := New(store.NewMemoryStore())
	ctx := context.Background()
	_, err := g.Store(ctx, make([]byte, render.PackedSize))
	require.NoError(t, err)

	hit, err := g.Retrieve(ctx, zerosETag)
	require.NoError(t, err)
	assert.True(t, hit.NotModified)
	assert.Nil(t, hit.Data)
	assert.Equal(t, zerosETag, hit.ETag)

	for _, tag := range []string{"wrong", strings.Trim(zerosETag, `"`), "W/" + zerosETag, strings.ToUpper(zerosETag)} {
		miss, err := g.Retrieve(ctx, tag)
		require.NoError(t, err)
		assert.False(t, miss.NotModified, tag)
		assert.Len(t, miss.Data, render.PackedSize)
	}
}

func TestOverwriteChangesTag(t *testing.T) {
	g := New(store.NewMemoryStore())
	ctx := context.Background()

	first, err := g.Store(ctx, make([]byte, render.PackedSize))
	require.NoError(t, err)
	second, err := g.Store(ctx, bytes.Repeat([]byte{0xAB}, render.PackedSize))
	require.NoError(t, err)
	assert.NotEqual(t, first.ETag, second.ETag)

	got, err := g.Retrieve(ctx, first.ETag)
	require.NoError(t, err)
	assert.False(t, got.NotModified)
	assert.Equal(t, second.ETag, got.ETag)
	assert.Equal(t, byte(0xAB), got.Data[0])
}

func TestLegacyRecordWithoutTag(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, DefaultKey, store.Object{Data: make([]byte, render.PackedSize)}))

	g := New(s)
	got, err := g.Retrieve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, zerosETag, got.ETag)
	assert.True(t, got.StoredAt.IsZero())

	hit, err := g.Retrieve(ctx, zerosETag)
	require.NoError(t, err)
	assert.True(t, hit.NotModified)
}

func TestOptions(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	g := New(s, WithKey("other"), WithExpectedSize(4))
	assert.Equal(t, 4, g.ExpectedSize())

	_, err := g.Store(ctx, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = s.Get(ctx, "other")
	assert.NoError(t, err)
	_, err = s.Get(ctx, DefaultKey)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestConcurrentStoresLastWriteWins(t *testing.T) {
	g := New(store.NewMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(b byte) {
			defer wg.Done()
			_, _ = g.Store(ctx, bytes.Repeat([]byte{b}, render.PackedSize))
		}(byte(i))
	}
	wg.Wait()

	got, err := g.Retrieve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, ComputeETag(got.Data), got.ETag)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := New(store.NewMemoryStore(), WithRegisterer(reg))
	ctx := context.Background()

	_, _ = g.Retrieve(ctx, "")
	_, _ = g.Store(ctx, []byte{1})
	_, err := g.Store(ctx, make([]byte, render.PackedSize))
	require.NoError(t, err)
	_, _ = g.Retrieve(ctx, "")
	_, _ = g.Retrieve(ctx, zerosETag)

	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.stores))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.sizeMismatch))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.retrievals.WithLabelValues(retrieveNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.retrievals.WithLabelValues(retrieveOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.retrievals.WithLabelValues(retrieveNotModified)))
}
