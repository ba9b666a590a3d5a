package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hailinhs/alumnisite/internal/kv"
)

type Store struct {
	client *redis.Client
	prefix string
	log    *logrus.Entry
}

var _ kv.Store = (*Store)(nil)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func New(ctx context.Context, l *logrus.Logger, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(err, client.Close())
	}
	log := l.WithField("from", "kv-redis")
	log.WithField("addr", opts.Addr).Info("local store connected")
	return &Store{
		client: client,
		prefix: opts.Prefix,
		log:    log,
	}, nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, kv.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
