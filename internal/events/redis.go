package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"dreamcut-backend/internal/logger"
)

// Publisher is the part of the redis client RedisSink needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

type RedisSink struct {
	log     *logger.Logger
	rdb     Publisher
	channel string
}

// NewRedisClient dials and pings addr.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisSink(rdb Publisher, channel string, log *logger.Logger) *RedisSink {
	if channel == "" {
		channel = "dreamcut-events"
	}
	return &RedisSink{
		log:     log.With("service", "RedisEventSink"),
		rdb:     rdb,
		channel: channel,
	}
}

func (s *RedisSink) Publish(ctx context.Context, e Event) {
	raw, err := json.Marshal(e)
	if err != nil {
		s.log.Warn("failed to encode event", "event", e.Name, "error", err)
		return
	}
	if err := s.rdb.Publish(ctx, s.channel, raw).Err(); err != nil {
		s.log.Warn("failed to publish event", "event", e.Name, "channel", s.channel, "error", err)
	}
}
