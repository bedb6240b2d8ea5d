package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	goRedis "github.com/redis/go-redis/v9"
)

const (
	redisDataField  = "data"
	redisMetaPrefix = "meta:"
)

type RedisOptions struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Prefix is prepended to every key, e.g. "epaper:".
	Prefix string `yaml:"prefix"`
}

// RedisStore keeps each object in one hash: the blob under "data" and each
// metadata entry under "meta:<name>".
type RedisStore struct {
	redisClient *goRedis.Client
	prefix      string
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, errors.New("store: redis driver needs an address")
	}
	redisClient := goRedis.NewClient(&goRedis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, errors.Wrap(err, "redis connect failed")
	}
	return &RedisStore{redisClient: redisClient, prefix: opts.Prefix}, nil
}

// Put replaces the whole hash in one MULTI/EXEC so stale metadata fields never
// survive an overwrite.
func (s *RedisStore) Put(ctx context.Context, key string, obj Object) error {
	if err := validKey(key); err != nil {
		return err
	}
	values := make([]interface{}, 0, 2+2*len(obj.Meta))
	values = append(values, redisDataField, obj.Data)
	for k, v := range obj.Meta {
		values = append(values, redisMetaPrefix+k, v)
	}

	redisKey := s.prefix + key
	pipe := s.redisClient.TxPipeline()
	pipe.Del(ctx, redisKey)
	pipe.HSet(ctx, redisKey, values...)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "redis put failed")
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Object, error) {
	fields, err := s.redisClient.HGetAll(ctx, s.prefix+key).Result()
	if err == goRedis.Nil {
		return Object{}, ErrNotFound
	} else if err != nil {
		return Object{}, errors.Wrap(err, "redis get failed")
	}
	data, ok := fields[redisDataField]
	if !ok {
		return Object{}, ErrNotFound
	}

	obj := Object{Data: []byte(data)}
	for k, v := range fields {
		if name, isMeta := strings.CutPrefix(k, redisMetaPrefix); isMeta {
			if obj.Meta == nil {
				obj.Meta = make(map[string]string)
			}
			obj.Meta[name] = v
		}
	}
	return obj, nil
}

func (s *RedisStore) Close() error {
	return s.redisClient.Close()
}
