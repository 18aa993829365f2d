package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Logger is the shared structured logger. Debug level is enabled by
// CHATSTREAM_DEBUG so that skipped-frame logging stays silent in production.
var Logger = newLogger()

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if Debug() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Debug reports whether verbose diagnostics are enabled.
func Debug() bool {
	v := strings.TrimSpace(os.Getenv("CHATSTREAM_DEBUG"))
	return v == "1" || strings.EqualFold(v, "true")
}

// Config holds the runtime settings for the upstream chat API and the relay.
type Config struct {
	// UpstreamBaseURL is the base URL of the chat application's API.
	UpstreamBaseURL string
	// Cookie is the session cookie forwarded on every upstream request.
	// Obtaining and refreshing it is the auth layer's job, not ours.
	Cookie string
	// RetryBackoff is the fixed wait before the single 5xx retry.
	RetryBackoff time.Duration
	// Port is the relay listen port.
	Port string
}

var warnOnce sync.Once

// Load reads configuration from the environment.
func Load() *Config {
	cfg := &Config{
		UpstreamBaseURL: "http://127.0.0.1:3000",
		Cookie:          strings.TrimSpace(os.Getenv("CHATSTREAM_COOKIE")),
		RetryBackoff:    2 * time.Second,
		Port:            "5011",
	}
	if v := strings.TrimSpace(os.Getenv("CHATSTREAM_UPSTREAM")); v != "" {
		cfg.UpstreamBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("CHATSTREAM_RETRY_BACKOFF_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RetryBackoff = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if cfg.Cookie == "" {
		warnOnce.Do(func() {
			Logger.Warn("CHATSTREAM_COOKIE is not set; upstream requests will be unauthenticated and will 401")
		})
	}
	return cfg
}
