package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"slack-ops-bot/internal/domain"
	"slack-ops-bot/internal/infra/cache"
)

type stubAPI struct {
	responses [][]domain.Message
	errs      []error
	calls     int
}

func (s *stubAPI) History(context.Context, string, domain.HistoryQuery) ([]domain.Message, error) {
	idx := s.calls
	s.calls++
	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	if err != nil {
		return nil, err
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return nil, nil
}

func (s *stubAPI) AuthTest(context.Context) (domain.Identity, error) { return domain.Identity{}, nil }
func (s *stubAPI) Members(context.Context, string) ([]string, error) { return nil, nil }
func (s *stubAPI) Join(context.Context, string) error                { return nil }
func (s *stubAPI) PostMessage(context.Context, string, string) (domain.PostResult, error) {
	return domain.PostResult{}, nil
}
func (s *stubAPI) ScheduleMessage(context.Context, string, string, int64) (domain.ScheduleResult, error) {
	return domain.ScheduleResult{}, nil
}
func (s *stubAPI) UpdateMessage(context.Context, string, string, string) (domain.UpdateResult, error) {
	return domain.UpdateResult{}, nil
}
func (s *stubAPI) DeleteMessage(context.Context, string, string) (domain.DeleteResult, error) {
	return domain.DeleteResult{}, nil
}

func newResolver(api *stubAPI, c domain.MessageCache) *Resolver {
	return NewResolver(api, c, zerolog.Nop(), Config{MaxRetries: defaultRetries, Backoff: time.Millisecond, Timeout: time.Second})
}

func TestFindNearPicksClosest(t *testing.T) {
	api := &stubAPI{responses: [][]domain.Message{{
		{TS: "100.000000", Text: "ближнее"},
		{TS: "103.000000", Text: "дальнее"},
	}}}
	r := newResolver(api, cache.NewMemory(0))

	msg, err := r.FindNear(context.Background(), "C123", 101)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if msg.TS != "100.000000" {
		t.Fatalf("ожидали ближайшее сообщение 100.000000, получили %s", msg.TS)
	}
}

func TestFindNearCacheHitSkipsRemote(t *testing.T) {
	api := &stubAPI{}
	c := cache.NewMemory(0)
	c.Put("C123", TargetKey(101), domain.Message{TS: "100.000000", Text: "из кэша"})
	r := newResolver(api, c)

	msg, err := r.FindNear(context.Background(), "C123", 101)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if msg.Text != "из кэша" {
		t.Fatalf("ожидали значение из кэша")
	}
	if api.calls != 0 {
		t.Fatalf("не ожидали обращений к платформе, было %d", api.calls)
	}
}

func TestFindNearCachesWinner(t *testing.T) {
	api := &stubAPI{responses: [][]domain.Message{{{TS: "100.000000", Text: "раз"}}}}
	c := cache.NewMemory(0)
	r := newResolver(api, c)

	if _, err := r.FindNear(context.Background(), "C123", 101); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := r.FindNear(context.Background(), "C123", 101); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if api.calls != 1 {
		t.Fatalf("ожидали одно обращение к платформе, было %d", api.calls)
	}
}

func TestFindNearNotFoundAfterRetries(t *testing.T) {
	api := &stubAPI{}
	r := newResolver(api, cache.NewMemory(0))

	start := time.Now()
	_, err := r.FindNear(context.Background(), "C123", 101)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
	if api.calls != 3 {
		t.Fatalf("ожидали ровно 3 попытки, было %d", api.calls)
	}
	// Линейный отступ: 1x + 2x между тремя попытками.
	if elapsed < 3*time.Millisecond {
		t.Fatalf("ожидали отступы между попытками, прошло %v", elapsed)
	}
}

func TestFindNearHonorsZeroRetries(t *testing.T) {
	api := &stubAPI{}
	r := NewResolver(api, cache.NewMemory(0), zerolog.Nop(), Config{MaxRetries: 0, Backoff: time.Millisecond, Timeout: time.Second})

	_, err := r.FindNear(context.Background(), "C123", 101)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
	if api.calls != 1 {
		t.Fatalf("ожидали ровно одну попытку без повторов, было %d", api.calls)
	}
}

func TestFindNearRetriesAfterRemoteError(t *testing.T) {
	api := &stubAPI{
		errs:      []error{errors.New("internal_error"), nil},
		responses: [][]domain.Message{nil, {{TS: "101.000000", Text: "второй заход"}}},
	}
	r := newResolver(api, cache.NewMemory(0))

	msg, err := r.FindNear(context.Background(), "C123", 101)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if msg.Text != "второй заход" {
		t.Fatalf("ожидали результат второй попытки")
	}
	if api.calls != 2 {
		t.Fatalf("ожидали 2 попытки, было %d", api.calls)
	}
}

func TestFindNearWrapsLastCause(t *testing.T) {
	cause := errors.New("ratelimited")
	api := &stubAPI{errs: []error{cause, cause, cause}}
	r := newResolver(api, cache.NewMemory(0))

	_, err := r.FindNear(context.Background(), "C123", 101)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("ожидали последнюю причину внутри ошибки, получили %v", err)
	}
}
