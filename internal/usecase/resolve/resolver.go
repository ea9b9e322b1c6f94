package resolve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"slack-ops-bot/internal/domain"
	"slack-ops-bot/internal/infra/metrics"
)

const (
	defaultTimeout = 5 * time.Second
	defaultRetries = 2
	defaultBackoff = 500 * time.Millisecond

	// Окно поиска вокруг целевого момента: человек вводит время
	// приблизительно, точность платформы — секунды.
	searchWindowSeconds = 2

	historyLimit = 100
)

// ErrNotFound возвращается после исчерпания всех попыток поиска.
// Ошибка оборачивает последнюю причину, так что errors.Is/As работают
// и по таймауту, и по коду платформы.
var ErrNotFound = errors.New("сообщение рядом с указанным временем не найдено")

var errNoCandidates = errors.New("в окне поиска нет сообщений")

// Config переопределяет параметры поиска. Нулевые Timeout и Backoff
// заменяются значениями по умолчанию; MaxRetries берётся как есть при
// значении >= 0 (0 — без повторов), отрицательное — значение по умолчанию.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// Resolver находит реальное сообщение рядом с целевым моментом времени,
// сначала в кэше, затем в истории канала с повторами и отступами.
type Resolver struct {
	api     domain.SlackAPI
	cache   domain.MessageCache
	log     zerolog.Logger
	timeout time.Duration
	retries int
	backoff time.Duration
}

// NewResolver создаёт resolver.
func NewResolver(api domain.SlackAPI, cache domain.MessageCache, log zerolog.Logger, cfg Config) *Resolver {
	r := &Resolver{
		api:     api,
		cache:   cache,
		log:     log,
		timeout: cfg.Timeout,
		retries: cfg.MaxRetries,
		backoff: cfg.Backoff,
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	if r.retries < 0 {
		r.retries = defaultRetries
	}
	if r.backoff <= 0 {
		r.backoff = defaultBackoff
	}
	return r
}

// TargetKey возвращает ключ кэша для целевого момента в том же
// пространстве, что и реальные ts платформы.
func TargetKey(epoch int64) string {
	return strconv.FormatInt(epoch, 10) + ".000000"
}

// FindNear ищет сообщение в окне ±2 секунды вокруг epoch.
func (r *Resolver) FindNear(ctx context.Context, channel string, epoch int64) (domain.Message, error) {
	if msg, ok := r.cache.Get(channel, TargetKey(epoch)); ok {
		return msg, nil
	}

	query := domain.HistoryQuery{
		Oldest:    TargetKey(epoch - searchWindowSeconds),
		Latest:    TargetKey(epoch + searchWindowSeconds),
		Inclusive: true,
		Limit:     historyLimit,
	}

	attempts := r.retries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.ResolveAttemptsTotal.Inc()
		msg, err := r.attempt(ctx, channel, query, epoch)
		if err == nil {
			r.cache.Put(channel, TargetKey(epoch), msg)
			return msg, nil
		}
		lastErr = err
		r.log.Debug().Err(err).Int("attempt", attempt).Str("channel", channel).Msg("поиск сообщения не удался")
		if attempt < attempts {
			if err := sleep(ctx, time.Duration(attempt)*r.backoff); err != nil {
				return domain.Message{}, err
			}
		}
	}
	metrics.ResolveFailuresTotal.Inc()
	return domain.Message{}, fmt.Errorf("%w: %w", ErrNotFound, lastErr)
}

// attempt выполняет один запрос истории под собственным дедлайном.
// Отмена через контекст обрывает и сам сетевой вызов, а не только ожидание.
func (r *Resolver) attempt(ctx context.Context, channel string, query domain.HistoryQuery, epoch int64) (domain.Message, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	msgs, err := r.api.History(attemptCtx, channel, query)
	if err != nil {
		return domain.Message{}, err
	}
	if len(msgs) == 0 {
		return domain.Message{}, errNoCandidates
	}

	// Побеждает минимальная |разница|; при равенстве сохраняется порядок
	// ответа платформы.
	target := float64(epoch)
	best := msgs[0]
	bestDiff := math.Abs(best.Seconds() - target)
	for _, m := range msgs[1:] {
		diff := math.Abs(m.Seconds() - target)
		if diff < bestDiff {
			best = m
			bestDiff = diff
		}
	}
	return best, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
