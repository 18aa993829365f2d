package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatstream/internal/chat"
	"chatstream/internal/config"
	"chatstream/internal/server"
)

func main() {
	cfg := config.Load()
	client := chat.NewClient(chat.Options{
		BaseURL:      cfg.UpstreamBaseURL,
		Cookie:       cfg.Cookie,
		RetryBackoff: cfg.RetryBackoff,
	})
	app := server.NewApp(client)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: app.Router,
	}

	// Start server in a goroutine so we can listen for shutdown signals.
	go func() {
		config.Logger.Info("starting chatstream relay", "port", cfg.Port, "upstream", cfg.UpstreamBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			config.Logger.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	config.Logger.Info("shutdown signal received", "signal", sig.String())

	// Stop accepting new streams and abort the in-flight ones, then allow
	// up to 10 seconds for handlers to unwind.
	client.Registry().CancelAll()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		config.Logger.Error("graceful shutdown failed, forcing exit", "error", err)
		os.Exit(1)
	}
	config.Logger.Info("server gracefully stopped")
}
