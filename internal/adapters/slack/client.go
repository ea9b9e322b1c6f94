package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"slack-ops-bot/internal/domain"
	"slack-ops-bot/internal/infra/metrics"
)

// Config задаёт параметры клиента платформы.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// APIError — ошибка уровня платформы: ответ пришёл, но ok:false.
// Code содержит код ошибки платформы без изменений.
type APIError struct {
	Code string
}

func (e *APIError) Error() string { return e.Code }

// Client выполняет HTTP-вызовы к удалённой платформе.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ domain.SlackAPI = (*Client)(nil)

// NewClient создаёт клиент.
func NewClient(cfg Config) *Client {
	client := &Client{cfg: cfg}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.httpClient = &http.Client{Timeout: timeout}
	if cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://slack.com/api"
	}
	return client
}

// SetHTTPClient подменяет HTTP-клиент (используется в тестах).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// call выполняет один вызов метода платформы. При payload != nil уходит
// POST с JSON-телом, иначе GET с query-параметрами.
func (c *Client) call(ctx context.Context, method string, payload any, query url.Values, out any) error {
	var body io.Reader
	httpMethod := http.MethodGet
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
		httpMethod = http.MethodPost
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + method
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveSlackRequest(method, start, err)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// AuthTest возвращает идентификацию действующего бота (auth.test).
func (c *Client) AuthTest(ctx context.Context) (domain.Identity, error) {
	var resp struct {
		envelope
		UserID string `json:"user_id"`
		BotID  string `json:"bot_id"`
		Team   string `json:"team"`
	}
	if err := c.call(ctx, "auth.test", struct{}{}, nil, &resp); err != nil {
		return domain.Identity{}, err
	}
	if !resp.OK {
		return domain.Identity{}, &APIError{Code: resp.Error}
	}
	return domain.Identity{UserID: resp.UserID, BotID: resp.BotID, Team: resp.Team}, nil
}

// Members возвращает список участников канала (conversations.members).
func (c *Client) Members(ctx context.Context, channel string) ([]string, error) {
	query := url.Values{}
	query.Set("channel", channel)
	query.Set("limit", "200")
	var resp struct {
		envelope
		Members []string `json:"members"`
	}
	if err := c.call(ctx, "conversations.members", nil, query, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &APIError{Code: resp.Error}
	}
	return resp.Members, nil
}

// Join добавляет бота в канал (conversations.join).
func (c *Client) Join(ctx context.Context, channel string) error {
	payload := map[string]string{"channel": channel}
	var resp envelope
	if err := c.call(ctx, "conversations.join", payload, nil, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return &APIError{Code: resp.Error}
	}
	return nil
}

// History возвращает сообщения канала (conversations.history).
func (c *Client) History(ctx context.Context, channel string, q domain.HistoryQuery) ([]domain.Message, error) {
	query := url.Values{}
	query.Set("channel", channel)
	if q.Oldest != "" {
		query.Set("oldest", q.Oldest)
	}
	if q.Latest != "" {
		query.Set("latest", q.Latest)
	}
	if q.Inclusive {
		query.Set("inclusive", "true")
	}
	if q.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", q.Limit))
	}
	var resp struct {
		envelope
		Messages []domain.Message `json:"messages"`
	}
	if err := c.call(ctx, "conversations.history", nil, query, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, &APIError{Code: resp.Error}
	}
	return resp.Messages, nil
}

// PostMessage отправляет сообщение немедленно (chat.postMessage).
func (c *Client) PostMessage(ctx context.Context, channel, text string) (domain.PostResult, error) {
	payload := map[string]string{"channel": channel, "text": text}
	var resp struct {
		envelope
		domain.PostResult
	}
	if err := c.call(ctx, "chat.postMessage", payload, nil, &resp); err != nil {
		return domain.PostResult{}, err
	}
	if !resp.OK {
		return domain.PostResult{}, &APIError{Code: resp.Error}
	}
	return resp.PostResult, nil
}

// ScheduleMessage откладывает отправку до postAt (chat.scheduleMessage).
func (c *Client) ScheduleMessage(ctx context.Context, channel, text string, postAt int64) (domain.ScheduleResult, error) {
	payload := map[string]any{"channel": channel, "text": text, "post_at": postAt}
	var resp struct {
		envelope
		domain.ScheduleResult
	}
	if err := c.call(ctx, "chat.scheduleMessage", payload, nil, &resp); err != nil {
		return domain.ScheduleResult{}, err
	}
	if !resp.OK {
		return domain.ScheduleResult{}, &APIError{Code: resp.Error}
	}
	return resp.ScheduleResult, nil
}

// UpdateMessage редактирует сообщение по точному ts (chat.update).
func (c *Client) UpdateMessage(ctx context.Context, channel, ts, text string) (domain.UpdateResult, error) {
	payload := map[string]string{"channel": channel, "ts": ts, "text": text}
	var resp struct {
		envelope
		domain.UpdateResult
	}
	if err := c.call(ctx, "chat.update", payload, nil, &resp); err != nil {
		return domain.UpdateResult{}, err
	}
	if !resp.OK {
		return domain.UpdateResult{}, &APIError{Code: resp.Error}
	}
	return resp.UpdateResult, nil
}

// DeleteMessage удаляет сообщение по точному ts (chat.delete).
func (c *Client) DeleteMessage(ctx context.Context, channel, ts string) (domain.DeleteResult, error) {
	payload := map[string]string{"channel": channel, "ts": ts}
	var resp struct {
		envelope
		domain.DeleteResult
	}
	if err := c.call(ctx, "chat.delete", payload, nil, &resp); err != nil {
		return domain.DeleteResult{}, err
	}
	if !resp.OK {
		return domain.DeleteResult{}, &APIError{Code: resp.Error}
	}
	return resp.DeleteResult, nil
}
