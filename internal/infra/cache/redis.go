package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"slack-ops-bot/internal/domain"
	"slack-ops-bot/internal/infra/metrics"
)

// Redis реализует domain.MessageCache через Redis. Используется при
// запуске нескольких реплик; TTL обеспечивает сам Redis. Любая ошибка
// Redis трактуется как промах — кэш только ускоряет, но не решает.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ domain.MessageCache = (*Redis)(nil)

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Get возвращает сообщение, если запись ещё жива.
func (c *Redis) Get(channel, ts string) (domain.Message, bool) {
	raw, err := c.client.Get(context.Background(), cacheKey(channel, ts)).Bytes()
	if err != nil {
		metrics.CacheMissesTotal.Inc()
		return domain.Message{}, false
	}
	var msg domain.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		metrics.CacheMissesTotal.Inc()
		return domain.Message{}, false
	}
	metrics.CacheHitsTotal.Inc()
	return msg, true
}

// Put безусловно перезаписывает запись.
func (c *Redis) Put(channel, ts string, msg domain.Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = c.client.Set(context.Background(), cacheKey(channel, ts), raw, c.ttl).Err()
}

// Remove удаляет запись.
func (c *Redis) Remove(channel, ts string) {
	_ = c.client.Del(context.Background(), cacheKey(channel, ts)).Err()
}
