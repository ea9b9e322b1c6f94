package cache

import (
	"sync"
	"time"

	"slack-ops-bot/internal/domain"
	"slack-ops-bot/internal/infra/metrics"
)

// DefaultTTL — максимальный возраст записи кэша.
const DefaultTTL = 30 * time.Second

type entry struct {
	msg      domain.Message
	cachedAt time.Time
}

// Memory реализует domain.MessageCache поверх обычной map с мьютексом.
// Устаревшие записи удаляются лениво при чтении, фонового вытеснения нет.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

var _ domain.MessageCache = (*Memory)(nil)

// NewMemory создаёт кэш с указанным TTL (<=0 — DefaultTTL).
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func cacheKey(channel, ts string) string {
	return channel + ":" + ts
}

// Get возвращает сообщение, если запись есть и не устарела.
// Устаревшая запись удаляется как побочный эффект чтения.
func (c *Memory) Get(channel, ts string) (domain.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(channel, ts)
	e, ok := c.entries[key]
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return domain.Message{}, false
	}
	if c.now().Sub(e.cachedAt) >= c.ttl {
		delete(c.entries, key)
		metrics.CacheMissesTotal.Inc()
		return domain.Message{}, false
	}
	metrics.CacheHitsTotal.Inc()
	return e.msg, true
}

// Put безусловно перезаписывает запись и сбрасывает её возраст.
func (c *Memory) Put(channel, ts string, msg domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(channel, ts)] = entry{msg: msg, cachedAt: c.now()}
}

// Remove удаляет запись; повторное удаление безопасно.
func (c *Memory) Remove(channel, ts string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(channel, ts))
}
