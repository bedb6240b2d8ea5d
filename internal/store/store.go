// Package store is the key -> blob-with-metadata collaborator behind the
// gateway. Every backend gives atomic single-key put/get: a reader sees either
// the previous object or the new one, never a mix. Concurrent puts to the
// same key are last-write-wins.
package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("store: key not found")

// Object is a stored blob plus its string metadata.
type Object struct {
	Data []byte
	Meta map[string]string
}

// Clone returns a deep copy so callers never alias backend memory.
func (o Object) Clone() Object {
	out := Object{Data: append([]byte(nil), o.Data...)}
	if o.Meta != nil {
		out.Meta = make(map[string]string, len(o.Meta))
		for k, v := range o.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

type BlobStore interface {
	Put(ctx context.Context, key string, obj Object) error
	Get(ctx context.Context, key string) (Object, error)
	Close() error
}

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Options selects and configures a backend for Open.
type Options struct {
	Driver string
	Dir    string
	Redis  RedisOptions
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(opts.Dir)
	case DriverRedis:
		return NewRedisStore(ctx, opts.Redis)
	default:
		return nil, errors.Errorf("store: unknown driver %q", opts.Driver)
	}
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("store: empty key")
	}
	return nil
}
