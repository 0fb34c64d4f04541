package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AdmissionLock serializes attempt admission per (user, test) so the
// lookup-before-create cannot race with itself across requests. The DB's
// partial unique index on IN_PROGRESS attempts remains the backstop.
type AdmissionLock interface {
	Acquire(ctx context.Context, userID, testID uint, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID, testID uint) error
}

type redisAdmissionLock struct {
	client *redis.Client
}

func NewRedisAdmissionLock(client *redis.Client) AdmissionLock {
	return &redisAdmissionLock{client: client}
}

func admissionKey(userID, testID uint) string {
	return fmt.Sprintf("attempt:lock:%d:%d", userID, testID)
}

func (l *redisAdmissionLock) Acquire(ctx context.Context, userID, testID uint, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, admissionKey(userID, testID), 1, ttl).Result()
}

func (l *redisAdmissionLock) Release(ctx context.Context, userID, testID uint) error {
	return l.client.Del(ctx, admissionKey(userID, testID)).Err()
}

// LocalAdmissionLock is an in-process implementation for tests and
// single-instance deployments without redis.
type LocalAdmissionLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalAdmissionLock() *LocalAdmissionLock {
	return &LocalAdmissionLock{held: make(map[string]struct{})}
}

func (l *LocalAdmissionLock) Acquire(_ context.Context, userID, testID uint, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := admissionKey(userID, testID)
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = struct{}{}
	return true, nil
}

func (l *LocalAdmissionLock) Release(_ context.Context, userID, testID uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, admissionKey(userID, testID))
	return nil
}
