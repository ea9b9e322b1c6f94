package http

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestServerShutdownStopsListener(t *testing.T) {
	s := NewServer(zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- s.Start("127.0.0.1:0") }()

	// Даём слушателю подняться: Shutdown до запуска тоже корректен,
	// но проверяем именно остановку работающего сервера.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("не ожидали ошибку остановки: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("ожидали ErrServerClosed, получили %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("сервер не завершился после Shutdown")
	}
}
