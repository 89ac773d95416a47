package output

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
)

// 事件在Stream条目中的字段名
const redisEventField = "event"

// RedisPublisher 以XADD写入Redis Stream
// 说明：MaxLen>0时使用近似裁剪（MAXLEN ~），控制Stream长度
type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisPublisher 连接Redis并检查可用性
func NewRedisPublisher(ctx context.Context, c config.RedisSink) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisPublisher{client: client, stream: c.Stream, maxLen: c.MaxLen}, nil
}

func (p *RedisPublisher) Name() string {
	return "redis:" + p.stream
}

func (p *RedisPublisher) Publish(ctx context.Context, payload []byte) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: p.maxLen > 0,
		Values: map[string]any{redisEventField: payload},
	}).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
