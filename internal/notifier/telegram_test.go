package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zaptest.NewLogger(t))
	n.APIBase = srv.URL
	require.NoError(t, n.Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestTelegramNotifier_SendWithRetryGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zaptest.NewLogger(t))
	n.APIBase = srv.URL
	err := n.SendWithRetry(context.Background(), "hi", 0)
	assert.ErrorContains(t, err, "retries exhausted")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_Dispatch(t *testing.T) {
	var replies int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&replies, 1)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zaptest.NewLogger(t))
	n.APIBase = srv.URL

	var updates []telegramUpdate
	require.NoError(t, json.Unmarshal([]byte(`[
		{"update_id": 7, "message": {"text": " /help "}},
		{"update_id": 8},
		{"update_id": 9, "message": {"text": "/quiet"}}
	]`), &updates))

	var seen []string
	next := n.dispatch(context.Background(), updates, 0, func(_ context.Context, cmd string) string {
		seen = append(seen, cmd)
		if cmd == "/quiet" {
			return ""
		}
		return "ok"
	})
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/help", "/quiet"}, seen)
	assert.Equal(t, int32(1), atomic.LoadInt32(&replies))
}

func TestTelegramNotifier_PollingBacksOffWhenRejected(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&polls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("revoked", "42", "", zaptest.NewLogger(t))
	n.APIBase = srv.URL
	n.PollBackoff = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	n.StartPolling(ctx, func(context.Context, string) string {
		t.Error("handler must not run for a rejected poll")
		return ""
	})
	got := atomic.LoadInt32(&polls)
	assert.GreaterOrEqual(t, got, int32(1))
	assert.LessOrEqual(t, got, int32(4))
}
