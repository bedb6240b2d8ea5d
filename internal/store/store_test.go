package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func testBlobStore(t *testing.T, s BlobStore) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("put then get", func(t *testing.T) {
		obj := Object{Data: []byte{0x00, 0xFF, 0x10}, Meta: map[string]string{"etag": `"abc"`, "size": "3"}}
		require.NoError(t, s.Put(ctx, "latest_binary", obj))

		got, err := s.Get(ctx, "latest_binary")
		require.NoError(t, err)
		assert.Equal(t, obj.Data, got.Data)
		assert.Equal(t, obj.Meta, got.Meta)
	})

	t.Run("overwrite drops stale metadata", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "slot", Object{Data: []byte("one"), Meta: map[string]string{"etag": "1", "extra": "x"}}))
		require.NoError(t, s.Put(ctx, "slot", Object{Data: []byte("two"), Meta: map[string]string{"etag": "2"}}))

		got, err := s.Get(ctx, "slot")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got.Data)
		assert.Equal(t, map[string]string{"etag": "2"}, got.Meta)
	})

	t.Run("returned data is not aliased", func(t *testing.T) {
		data := []byte("abc")
		require.NoError(t, s.Put(ctx, "alias", Object{Data: data}))
		data[0] = 'z'
		got, err := s.Get(ctx, "alias")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got.Data)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.Error(t, s.Put(ctx, " ", Object{Data: []byte("x")}))
	})

	t.Run("concurrent puts last write wins", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.Put(ctx, "race", Object{Data: []byte{byte(i)}, Meta: map[string]string{"n": string(rune('a' + i))}})
			}(i)
		}
		wg.Wait()
		got, err := s.Get(ctx, "race")
		require.NoError(t, err)
		require.Len(t, got.Data, 1)
		assert.Equal(t, string(rune('a'+int(got.Data[0]))), got.Meta["n"], "data and metadata come from the same put")
	})
}

func TestMemoryStore(t *testing.T) {
	testBlobStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	testBlobStore(t, s)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "latest_binary", Object{Data: []byte("frame"), Meta: map[string]string{"etag": `"e"`}}))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := second.Get(ctx, "latest_binary")
	require.NoError(t, err)
	assert.Equal(t, []byte("frame"), got.Data)
	assert.Equal(t, `"e"`, got.Meta["etag"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are renamed away")
	assert.Equal(t, "latest_binary.blob", entries[0].Name())
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.blob"), []byte("nope"), 0o644))
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "latest_binary", sanitizeKey("latest_binary"))
	assert.Equal(t, "%2E%2E%2Fetc%2Fpasswd", sanitizeKey("../etc/passwd"))
	assert.Equal(t, "a%25b%20", sanitizeKey("a%b "))
}

func TestFileStoreKeepsSimilarKeysApart(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	keys := []string{"a.b", "a/b", "a_b", "a%2Eb", "a b"}
	for i, key := range keys {
		require.NoError(t, s.Put(ctx, key, Object{Data: []byte{byte(i)}}))
	}
	for i, key := range keys {
		got, err := s.Get(ctx, key)
		require.NoError(t, err, key)
		assert.Equal(t, []byte{byte(i)}, got.Data, key)
	}

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(keys))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Driver: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, Options{Driver: "file"})
	assert.Error(t, err)
	_, err = Open(ctx, Options{Driver: "s3"})
	assert.Error(t, err)
	_, err = Open(ctx, Options{Driver: "redis"})
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	if os.Getenv("EPAPER_TEST_REDIS") == "" {
		t.Skip("set EPAPER_TEST_REDIS=1 to run against a redis container")
	}
	ctx := context.Background()

	container, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("docker.io/redis:7"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	s, err := NewRedisStore(ctx, RedisOptions{Addr: host + ":" + port.Port(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testBlobStore(t, s)
}
