package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"slack-ops-bot/internal/domain"
	"slack-ops-bot/internal/infra/metrics"
	"slack-ops-bot/internal/usecase/membership"
	"slack-ops-bot/internal/usecase/resolve"
	"slack-ops-bot/internal/usecase/timeparse"
)

const listLimit = 10

// Service реализует пользовательские операции над сообщениями.
// Каждая операция сперва гарантирует членство бота в канале; любая
// внутренняя ошибка заворачивается ровно один раз с контекстом операции.
type Service struct {
	api      domain.SlackAPI
	guard    *membership.Guard
	resolver *resolve.Resolver
	cache    domain.MessageCache
	log      zerolog.Logger
}

// NewService создаёт сервис операций.
func NewService(api domain.SlackAPI, guard *membership.Guard, resolver *resolve.Resolver, cache domain.MessageCache, log zerolog.Logger) *Service {
	return &Service{api: api, guard: guard, resolver: resolver, cache: cache, log: log}
}

// Send отправляет сообщение немедленно.
func (s *Service) Send(ctx context.Context, channel, text string) (domain.PostResult, error) {
	defer metrics.ObserveOperation("send", time.Now())
	if err := s.guard.EnsureMember(ctx, channel); err != nil {
		return domain.PostResult{}, fmt.Errorf("отправка сообщения: %w", err)
	}
	res, err := s.api.PostMessage(ctx, channel, text)
	if err != nil {
		return domain.PostResult{}, fmt.Errorf("отправка сообщения: %w", err)
	}
	return res, nil
}

// Schedule откладывает отправку до указанных человеком даты и времени.
// В ответ добавляется эхо исходных даты и времени.
func (s *Service) Schedule(ctx context.Context, channel, text, date, at string) (domain.ScheduleResult, error) {
	defer metrics.ObserveOperation("schedule", time.Now())
	if err := s.guard.EnsureMember(ctx, channel); err != nil {
		return domain.ScheduleResult{}, fmt.Errorf("отложенная отправка: %w", err)
	}
	epoch, err := timeparse.Resolve(date, at)
	if err != nil {
		return domain.ScheduleResult{}, fmt.Errorf("отложенная отправка: %w", err)
	}
	res, err := s.api.ScheduleMessage(ctx, channel, text, epoch)
	if err != nil {
		return domain.ScheduleResult{}, fmt.Errorf("отложенная отправка: %w", err)
	}
	res.ScheduledFor = date + " " + at
	return res, nil
}

// List возвращает последние сообщения канала и прогревает кэш их
// собственными ts, чтобы ближайшие edit/delete обошлись без поиска.
func (s *Service) List(ctx context.Context, channel string) ([]domain.Message, error) {
	defer metrics.ObserveOperation("list", time.Now())
	if err := s.guard.EnsureMember(ctx, channel); err != nil {
		return nil, fmt.Errorf("список сообщений: %w", err)
	}
	msgs, err := s.api.History(ctx, channel, domain.HistoryQuery{Limit: listLimit})
	if err != nil {
		return nil, fmt.Errorf("список сообщений: %w", err)
	}
	for _, m := range msgs {
		s.cache.Put(channel, m.TS, m)
	}
	return msgs, nil
}

// Edit находит сообщение рядом с указанным временем и меняет его текст.
// Обновление уходит по точному ts найденного сообщения, не по вводу
// пользователя; кэш обновляется под обоими ключами.
func (s *Service) Edit(ctx context.Context, channel, date, at, newText string) (domain.UpdateResult, error) {
	defer metrics.ObserveOperation("edit", time.Now())
	if err := s.guard.EnsureMember(ctx, channel); err != nil {
		return domain.UpdateResult{}, fmt.Errorf("редактирование сообщения: %w", err)
	}
	epoch, err := timeparse.Resolve(date, at)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("редактирование сообщения: %w", err)
	}
	msg, err := s.resolver.FindNear(ctx, channel, epoch)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("редактирование сообщения: %w", err)
	}
	s.log.Debug().Str("channel", channel).Str("ts", msg.TS).Int64("target", epoch).Msg("сообщение для правки найдено")
	res, err := s.api.UpdateMessage(ctx, channel, msg.TS, newText)
	if err != nil {
		return domain.UpdateResult{}, fmt.Errorf("редактирование сообщения: %w", err)
	}
	updated := msg
	updated.Text = newText
	s.cache.Put(channel, msg.TS, updated)
	s.cache.Put(channel, resolve.TargetKey(epoch), updated)
	return res, nil
}

// Delete находит сообщение рядом с указанным временем и удаляет его.
// Кэш чистится под обоими ключами, чтобы повторный поиск ушёл на платформу.
func (s *Service) Delete(ctx context.Context, channel, date, at string) (domain.DeleteResult, error) {
	defer metrics.ObserveOperation("delete", time.Now())
	if err := s.guard.EnsureMember(ctx, channel); err != nil {
		return domain.DeleteResult{}, fmt.Errorf("удаление сообщения: %w", err)
	}
	epoch, err := timeparse.Resolve(date, at)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("удаление сообщения: %w", err)
	}
	msg, err := s.resolver.FindNear(ctx, channel, epoch)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("удаление сообщения: %w", err)
	}
	s.log.Debug().Str("channel", channel).Str("ts", msg.TS).Int64("target", epoch).Msg("сообщение для удаления найдено")
	res, err := s.api.DeleteMessage(ctx, channel, msg.TS)
	if err != nil {
		return domain.DeleteResult{}, fmt.Errorf("удаление сообщения: %w", err)
	}
	s.cache.Remove(channel, msg.TS)
	s.cache.Remove(channel, resolve.TargetKey(epoch))
	return res, nil
}
