package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHATSTREAM_UPSTREAM", "")
	t.Setenv("CHATSTREAM_RETRY_BACKOFF_MS", "")
	t.Setenv("PORT", "")

	cfg := Load()
	if cfg.UpstreamBaseURL != "http://127.0.0.1:3000" {
		t.Fatalf("unexpected default upstream: %q", cfg.UpstreamBaseURL)
	}
	if cfg.RetryBackoff != 2*time.Second {
		t.Fatalf("unexpected default backoff: %v", cfg.RetryBackoff)
	}
	if cfg.Port != "5011" {
		t.Fatalf("unexpected default port: %q", cfg.Port)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CHATSTREAM_UPSTREAM", "https://chat.example.com/")
	t.Setenv("CHATSTREAM_COOKIE", "session=abc")
	t.Setenv("CHATSTREAM_RETRY_BACKOFF_MS", "250")
	t.Setenv("PORT", "9000")

	cfg := Load()
	if cfg.UpstreamBaseURL != "https://chat.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.UpstreamBaseURL)
	}
	if cfg.Cookie != "session=abc" {
		t.Fatalf("unexpected cookie: %q", cfg.Cookie)
	}
	if cfg.RetryBackoff != 250*time.Millisecond {
		t.Fatalf("unexpected backoff: %v", cfg.RetryBackoff)
	}
	if cfg.Port != "9000" {
		t.Fatalf("unexpected port: %q", cfg.Port)
	}
}

func TestLoadIgnoresBadBackoff(t *testing.T) {
	t.Setenv("CHATSTREAM_RETRY_BACKOFF_MS", "soon")
	cfg := Load()
	if cfg.RetryBackoff != 2*time.Second {
		t.Fatalf("bad backoff value must fall back to default, got %v", cfg.RetryBackoff)
	}
}
