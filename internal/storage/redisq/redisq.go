// Package redisq provides the media-cleanup retry queue. The redis
// variant survives restarts; the memory variant backs tests and
// single-node deployments without redis.
package redisq

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timevault-dev/timevault/internal/service"
)

const queueKey = "timevault:media_cleanup"

type RedisQueue struct {
	client *redis.Client
}

var _ service.CleanupQueue = (*RedisQueue)(nil)

func NewRedis(options *redis.Options) (*RedisQueue, error) {
	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisQueue{client: client}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, ref service.MediaRef) error {
	return q.client.LPush(ctx, queueKey, encode(ref)).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*service.MediaRef, error) {
	raw, err := q.client.RPop(ctx, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	ref, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func encode(ref service.MediaRef) string {
	// image names are uuid-based and contain no slashes
	return ref.CapsuleId + "/" + ref.Name
}

func decode(raw string) (service.MediaRef, error) {
	capsuleId, name, ok := strings.Cut(raw, "/")
	if !ok || capsuleId == "" || name == "" {
		return service.MediaRef{}, errors.New("malformed cleanup queue entry: " + raw)
	}
	return service.MediaRef{CapsuleId: capsuleId, Name: name}, nil
}

// MemoryQueue is the in-process fallback.
type MemoryQueue struct {
	mu   sync.Mutex
	refs []service.MediaRef
}

var _ service.CleanupQueue = (*MemoryQueue)(nil)

func NewMemory() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(_ context.Context, ref service.MediaRef) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.refs = append(q.refs, ref)
	return nil
}

func (q *MemoryQueue) Dequeue(_ context.Context) (*service.MediaRef, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.refs) == 0 {
		return nil, nil
	}
	ref := q.refs[0]
	q.refs = q.refs[1:]
	return &ref, nil
}
