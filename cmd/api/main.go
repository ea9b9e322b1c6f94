package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	slackadapter "slack-ops-bot/internal/adapters/slack"
	"slack-ops-bot/internal/domain"
	"slack-ops-bot/internal/infra/cache"
	"slack-ops-bot/internal/infra/config"
	httpinfra "slack-ops-bot/internal/infra/http"
	loginfra "slack-ops-bot/internal/infra/log"
	"slack-ops-bot/internal/infra/metrics"
	"slack-ops-bot/internal/usecase/membership"
	"slack-ops-bot/internal/usecase/messaging"
	"slack-ops-bot/internal/usecase/resolve"
	"slack-ops-bot/internal/usecase/timeparse"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := loginfra.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Slack.Token == "" {
		logger.Fatal().Msg("api: SLACK_BOT_TOKEN не задан")
	}

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	var msgCache domain.MessageCache
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		msgCache = cache.NewRedis(client, ttl)
		logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("api: кэш сообщений в Redis")
	} else {
		msgCache = cache.NewMemory(ttl)
	}

	api := slackadapter.NewClient(slackadapter.Config{
		BaseURL: cfg.Slack.BaseURL,
		Token:   cfg.Slack.Token,
		Timeout: time.Duration(cfg.Slack.TimeoutSeconds) * time.Second,
	})

	guard := membership.NewGuard(api, logger.With().Str("component", "membership").Logger())
	resolver := resolve.NewResolver(api, msgCache, logger.With().Str("component", "resolve").Logger(), resolve.Config{
		Timeout:    time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Search.MaxRetries,
		Backoff:    time.Duration(cfg.Search.BackoffMS) * time.Millisecond,
	})
	svc := messaging.NewService(api, guard, resolver, msgCache, logger.With().Str("component", "messaging").Logger())

	server := httpinfra.NewServer(logger)
	h := &handlers{
		svc:            svc,
		log:            logger.With().Str("component", "api").Logger(),
		defaultChannel: cfg.Slack.DefaultChannel,
	}
	server.Router.Group(func(r chi.Router) {
		if cfg.API.AuthToken != "" {
			r.Use(httpinfra.AuthMiddleware(cfg.API.AuthToken))
		}
		r.Post("/api/v1/messages/send", h.send)
		r.Post("/api/v1/messages/schedule", h.schedule)
		r.Post("/api/v1/messages/edit", h.edit)
		r.Post("/api/v1/messages/delete", h.delete)
		r.Get("/api/v1/messages", h.list)
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: graceful shutdown failed")
	}
	logger.Info().Msg("api: завершение работы")
}

type handlers struct {
	svc            *messaging.Service
	log            zerolog.Logger
	defaultChannel string
}

type messageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

func (h *handlers) channelOrDefault(channel string) string {
	if channel == "" {
		return h.defaultChannel
	}
	return channel
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, req *messageRequest) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

func (h *handlers) send(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Text == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}
	res, err := h.svc.Send(r.Context(), h.channelOrDefault(req.Channel), req.Text)
	h.respond(w, r, "send", res, err)
}

func (h *handlers) schedule(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Text == "" || req.Date == "" || req.Time == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("text, date and time are required"))
		return
	}
	res, err := h.svc.Schedule(r.Context(), h.channelOrDefault(req.Channel), req.Text, req.Date, req.Time)
	h.respond(w, r, "schedule", res, err)
}

func (h *handlers) edit(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Date == "" || req.Time == "" || req.Text == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("date, time and text are required"))
		return
	}
	res, err := h.svc.Edit(r.Context(), h.channelOrDefault(req.Channel), req.Date, req.Time, req.Text)
	h.respond(w, r, "edit", res, err)
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Date == "" || req.Time == "" {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("date and time are required"))
		return
	}
	res, err := h.svc.Delete(r.Context(), h.channelOrDefault(req.Channel), req.Date, req.Time)
	h.respond(w, r, "delete", res, err)
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	channel := h.channelOrDefault(r.URL.Query().Get("channel"))
	res, err := h.svc.List(r.Context(), channel)
	h.respond(w, r, "list", res, err)
}

func (h *handlers) respond(w http.ResponseWriter, r *http.Request, operation string, payload any, err error) {
	if err != nil {
		opID := uuid.NewString()
		h.log.Error().Err(err).
			Str("operation", operation).
			Str("op_id", opID).
			Str("request_id", httpinfra.RequestID(r)).
			Msg("операция не выполнена")
		httpinfra.WriteError(w, statusFor(err), err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "response": payload})
}

// statusFor переводит ошибку ядра в HTTP-статус для вызывающего маршрутизатора.
func statusFor(err error) int {
	switch {
	case errors.Is(err, membership.ErrInvalidChannelID),
		errors.Is(err, timeparse.ErrInvalidFormat),
		errors.Is(err, timeparse.ErrInvalidDate),
		errors.Is(err, timeparse.ErrInvalidTime):
		return http.StatusBadRequest
	case errors.Is(err, resolve.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
