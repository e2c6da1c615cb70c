package utils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
)

const (
	// ProgressNamespace prefixes every key holding a participant's page index.
	ProgressNamespace = "page"
)

// ProgressStore keeps track of the page a participant is currently on.
// Participants that were never stored are on page 0.
type ProgressStore interface {
	GetPageIndex(ctx context.Context, participantCode string) (int, error)
	SetPageIndex(ctx context.Context, participantCode string, index int) error
}

type RedisStatusStore struct {
	inner     *redis.Client
	keyParser RedisKeyParser
}

// GetRedisStatusStore connects to the redis instance configured by env and
// pings it once.
func GetRedisStatusStore(ctx context.Context) (*RedisStatusStore, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	_, err := redisClient.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStatusStore{
		inner:     redisClient,
		keyParser: RedisKeyParser{delimiter: "__"},
	}, nil
}

// GetProgressStore returns a redis backed store if REDIS_HOST is set, an in
// memory store otherwise.
func GetProgressStore(ctx context.Context) (ProgressStore, error) {
	if os.Getenv("REDIS_HOST") == "" {
		return NewMemoryProgressStore(), nil
	}
	return GetRedisStatusStore(ctx)
}

type RedisKeyParser struct {
	delimiter string
}

func (r RedisKeyParser) DecodeKey(key string) (string, string, error) {
	splits := strings.Split(key, r.delimiter)
	if (len(splits)) != 2 {
		return "", "", fmt.Errorf("invalid key: %s", key)
	}
	return splits[0], splits[1], nil
}

func (r RedisKeyParser) ValidateId(id string) bool {
	return !strings.Contains(id, r.delimiter)
}

func (r RedisKeyParser) EncodeKey(namespace string, id string) (string, error) {
	if !r.ValidateId(namespace) || !r.ValidateId(id) {
		return "", fmt.Errorf("invalid namespace or id")
	}
	return fmt.Sprintf("%s%s%s", namespace, r.delimiter, id), nil
}

func (r *RedisStatusStore) GetPageIndex(ctx context.Context, participantCode string) (int, error) {
	key, err := r.keyParser.EncodeKey(ProgressNamespace, participantCode)
	if err != nil {
		return 0, err
	}
	v, err := r.inner.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func (r *RedisStatusStore) SetPageIndex(ctx context.Context, participantCode string, index int) error {
	key, err := r.keyParser.EncodeKey(ProgressNamespace, participantCode)
	if err != nil {
		return err
	}
	return r.inner.Set(ctx, key, strconv.Itoa(index), 0).Err()
}

// MemoryProgressStore is used when no redis is configured, and in tests.
type MemoryProgressStore struct {
	m     sync.RWMutex
	pages map[string]int
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{pages: make(map[string]int)}
}

func (s *MemoryProgressStore) GetPageIndex(_ context.Context, participantCode string) (int, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.pages[participantCode], nil
}

func (s *MemoryProgressStore) SetPageIndex(_ context.Context, participantCode string, index int) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.pages[participantCode] = index
	return nil
}
