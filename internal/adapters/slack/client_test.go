package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"slack-ops-bot/internal/domain"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(Config{BaseURL: srv.URL, Token: "xoxb-test"})
	client.SetHTTPClient(srv.Client())
	return client, srv
}

func TestPostMessage(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"channel": "C123",
			"ts":      "1700000000.000100",
			"message": map[string]string{"ts": "1700000000.000100", "text": "привет"},
		})
	}))
	defer srv.Close()

	res, err := client.PostMessage(context.Background(), "C123", "привет")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if gotAuth != "Bearer xoxb-test" {
		t.Fatalf("ожидали bearer-токен, получили %q", gotAuth)
	}
	if gotPath != "/chat.postMessage" {
		t.Fatalf("ожидали вызов chat.postMessage, получили %s", gotPath)
	}
	if gotBody["text"] != "привет" {
		t.Fatalf("ожидали исходный текст, получили %q", gotBody["text"])
	}
	if res.TS != "1700000000.000100" {
		t.Fatalf("ожидали ts из ответа, получили %q", res.TS)
	}
}

func TestAPIErrorSurfacesCode(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	defer srv.Close()

	_, err := client.PostMessage(context.Background(), "C404", "текст")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ожидали APIError, получили %v", err)
	}
	if apiErr.Code != "channel_not_found" {
		t.Fatalf("ожидали код платформы без изменений, получили %q", apiErr.Code)
	}
}

func TestHistoryQueryParams(t *testing.T) {
	var gotQuery map[string][]string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"messages": []map[string]string{
				{"ts": "100.000000", "text": "a"},
			},
		})
	}))
	defer srv.Close()

	msgs, err := client.History(context.Background(), "C123", domain.HistoryQuery{
		Oldest:    "99.000000",
		Latest:    "103.000000",
		Inclusive: true,
		Limit:     100,
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(msgs) != 1 || msgs[0].TS != "100.000000" {
		t.Fatalf("ожидали одно сообщение из ответа")
	}
	for key, want := range map[string]string{
		"channel":   "C123",
		"oldest":    "99.000000",
		"latest":    "103.000000",
		"inclusive": "true",
		"limit":     "100",
	} {
		if got := gotQuery[key]; len(got) != 1 || got[0] != want {
			t.Fatalf("ожидали %s=%s, получили %v", key, want, got)
		}
	}
}

func TestJoin(t *testing.T) {
	var gotBody map[string]string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	if err := client.Join(context.Background(), "C123"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if gotBody["channel"] != "C123" {
		t.Fatalf("ожидали канал в теле запроса, получили %q", gotBody["channel"])
	}
}
