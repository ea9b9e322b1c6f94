package domain

import "context"

// SlackAPI описывает вызовы удалённой платформы, необходимые ядру.
type SlackAPI interface {
	AuthTest(ctx context.Context) (Identity, error)
	Members(ctx context.Context, channel string) ([]string, error)
	Join(ctx context.Context, channel string) error
	History(ctx context.Context, channel string, q HistoryQuery) ([]Message, error)
	PostMessage(ctx context.Context, channel, text string) (PostResult, error)
	ScheduleMessage(ctx context.Context, channel, text string, postAt int64) (ScheduleResult, error)
	UpdateMessage(ctx context.Context, channel, ts, text string) (UpdateResult, error)
	DeleteMessage(ctx context.Context, channel, ts string) (DeleteResult, error)
}

// MessageCache — кэш сообщений с ограниченной свежестью, ключ (канал, ts).
// Кэш ускоряет повторный поиск, но никогда не является источником истины.
type MessageCache interface {
	Get(channel, ts string) (Message, bool)
	Put(channel, ts string, msg Message)
	Remove(channel, ts string)
}
