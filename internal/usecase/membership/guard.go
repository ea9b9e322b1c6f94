package membership

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"slack-ops-bot/internal/domain"
	"slack-ops-bot/internal/infra/metrics"
)

var (
	// ErrInvalidChannelID возвращается при неверной форме идентификатора.
	ErrInvalidChannelID = errors.New("некорректный идентификатор канала")
	// ErrJoinFailed возвращается, если вход в канал не удался.
	ErrJoinFailed = errors.New("не удалось войти в канал")
)

// Первый символ кодирует тип: C — публичный, G — приватный, D — личные сообщения.
var channelIDRegex = regexp.MustCompile(`^[CGD][A-Z0-9]+$`)

// ValidateChannelID проверяет форму идентификатора без сетевых вызовов.
func ValidateChannelID(channel string) error {
	if !channelIDRegex.MatchString(channel) {
		return ErrInvalidChannelID
	}
	return nil
}

// Guard гарантирует членство бота в канале перед любой операцией.
type Guard struct {
	api domain.SlackAPI
	log zerolog.Logger
}

// NewGuard создаёт guard.
func NewGuard(api domain.SlackAPI, log zerolog.Logger) *Guard {
	return &Guard{api: api, log: log}
}

// EnsureMember проверяет членство и при необходимости входит в канал.
// Неудачный вход фатален для вызывающей операции.
func (g *Guard) EnsureMember(ctx context.Context, channel string) error {
	if err := ValidateChannelID(channel); err != nil {
		return err
	}
	if g.isMember(ctx, channel) {
		return nil
	}
	metrics.JoinAttemptsTotal.Inc()
	if err := g.api.Join(ctx, channel); err != nil {
		return fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}
	g.log.Info().Str("channel", channel).Msg("бот вошёл в канал")
	return nil
}

// isMember проверяет членство по принципу best effort: любая ошибка
// трактуется как "не участник" и ведёт к идемпотентной попытке входа.
func (g *Guard) isMember(ctx context.Context, channel string) bool {
	identity, err := g.api.AuthTest(ctx)
	if err != nil {
		g.log.Debug().Err(err).Str("channel", channel).Msg("членство не подтверждено: auth.test")
		return false
	}
	members, err := g.api.Members(ctx, channel)
	if err != nil {
		g.log.Debug().Err(err).Str("channel", channel).Msg("членство не подтверждено: conversations.members")
		return false
	}
	for _, m := range members {
		if m == identity.UserID {
			return true
		}
	}
	return false
}
