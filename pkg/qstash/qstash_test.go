package qstash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tanpawarit/record-agent/record"
)

func TestNewClientRequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "https://qstash.upstash.io"}); err == nil {
		t.Fatal("NewClient() without token should fail")
	}
	if _, err := NewClient(Config{URL: "::bad", Token: "t"}); err == nil {
		t.Fatal("NewClient() with invalid url should fail")
	}
}

func TestChangeNotifierPublishes(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotDedup, gotRetries string
	var gotChange record.Change
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		gotRetries = r.Header.Get("Upstash-Retries")
		if err := json.NewDecoder(r.Body).Decode(&gotChange); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"messageId":"msg_1"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL, Token: "tok", Retries: 2})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	notifier := NewChangeNotifier(client, "https://hooks.example.com/records")

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err = notifier.Notify(context.Background(), record.Change{Collection: "medicines", Op: record.OpDelete, Key: "2", At: at})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if gotPath != "/v2/publish/https://hooks.example.com/records" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" || gotRetries != "2" {
		t.Fatalf("headers auth=%q retries=%q", gotAuth, gotRetries)
	}
	if gotDedup == "" {
		t.Fatal("missing deduplication id")
	}
	if gotChange.Collection != "medicines" || gotChange.Op != record.OpDelete || gotChange.Key != "2" {
		t.Fatalf("body = %#v", gotChange)
	}
}

func TestPublishReportsHTTPFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{URL: server.URL, Token: "bad"})
	_, err := client.Publish(context.Background(), "https://hooks.example.com", map[string]any{}, "")
	if err == nil || errors.Is(err, record.ErrConnectivity) {
		t.Fatalf("Publish() error = %v, want http status error", err)
	}
}
