package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shortforge/internal/config"
	"shortforge/internal/notifications"
)

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	service := notifications.NewService(&cfg)
	if err := service.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop service must not error: %v", err)
	}
}

func TestNotifyRunCompletedPostsToNtfy(t *testing.T) {
	var (
		gotTitle string
		gotTags  string
		gotBody  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(&cfg)

	err := service.NotifyRunCompleted(context.Background(), "client_a", "budgeting basics", "https://youtube.com/watch?v=abc", 42*time.Second)
	if err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if gotTitle != "Shortforge - Run Complete" {
		t.Errorf("unexpected title %q", gotTitle)
	}
	if !strings.Contains(gotTags, "completed") {
		t.Errorf("unexpected tags %q", gotTags)
	}
	if !strings.Contains(gotBody, "client_a") || !strings.Contains(gotBody, "https://youtube.com/watch?v=abc") {
		t.Errorf("unexpected body %q", gotBody)
	}
}

func TestNotifyRunFailedSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(&cfg)

	err := service.NotifyRunFailed(context.Background(), "client_a", "topic", errors.New("render exploded"))
	if err == nil {
		t.Fatal("expected error from 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("unexpected error: %v", err)
	}
}
