package services_test

import (
	"errors"
	"testing"

	"shortforge/internal/services"
)

func TestIsQuotaExceededMatchesSentinelAndMessage(t *testing.T) {
	wrapped := services.Wrap(services.ErrQuotaExceeded, "upload", "quota.acquire", "daily limit reached", nil)
	if !services.IsQuotaExceeded(wrapped) {
		t.Fatal("wrapped sentinel not classified as quota exceeded")
	}
	if !services.IsQuotaExceeded(errors.New("provider said: Quota Exceeded for channel")) {
		t.Fatal("message pattern not classified as quota exceeded")
	}
	if services.IsQuotaExceeded(errors.New("disk full")) {
		t.Fatal("unrelated error classified as quota exceeded")
	}
	if services.IsQuotaExceeded(nil) {
		t.Fatal("nil classified as quota exceeded")
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"quota sentinel", services.Wrap(services.ErrQuotaExceeded, "upload", "", "limit reached", nil), false},
		{"quota message", errors.New("quota exceeded for today"), false},
		{"validation", services.Wrap(services.ErrValidation, "", "jobs.update", "bad transition", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "", "config.load", "missing key", nil), false},
		{"transient", services.Wrap(services.ErrTransient, "voice", "tts", "503 from provider", nil), true},
		{"timeout", services.Wrap(services.ErrTimeout, "render", "render.poll", "gave up", nil), true},
		{"plain", errors.New("connection reset"), true},
	}
	for _, tc := range cases {
		if got := services.Retryable(tc.err); got != tc.want {
			t.Errorf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
