package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/campusexam/exam-portal/internal/config"
	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the startup probe so a wrong REDIS_URL fails fast
// instead of hanging the boot sequence.
const pingTimeout = 5 * time.Second

// NewRedisClient connects the client shared by the listing cache and the
// attempt admission lock. The admission lock must observe its SET NX
// promptly, so failures here abort startup rather than degrade silently.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.MinIdleConns = 2

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}
