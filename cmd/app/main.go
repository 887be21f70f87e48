package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nft_market/internal/app"
	"nft_market/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(infra.ConfigPath()); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Background badge icon sync
	go bootstrap.SyncBadgeIcon(ctx)

	// 5. Start Sequencer in its own goroutine (the only writer of market state)
	seqDone := make(chan struct{})
	go func() {
		defer close(seqDone)
		bootstrap.Sequencer.Run(ctx)
	}()
	slog.InfoContext(ctx, "Sequencer started", slog.String("market", bootstrap.Market.Address()))

	// 6. Feed and metrics endpoints
	cfg := bootstrap.Config
	var servers []*http.Server
	if cfg.Server.FeedAddr != "" {
		servers = append(servers, serve(ctx, "feed", cfg.Server.FeedAddr, bootstrap.FeedHandler()))
	}
	if cfg.Server.MetricsAddr != "" {
		servers = append(servers, serve(ctx, "metrics", cfg.Server.MetricsAddr, bootstrap.MetricsHandler()))
	}

	slog.InfoContext(ctx, "NFT market fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Server shutdown failed", slog.String("addr", srv.Addr), slog.Any("error", err))
		}
	}
	<-seqDone
}

func serve(ctx context.Context, name, addr string, h http.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.InfoContext(ctx, "HTTP server started", slog.String("name", name), slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", slog.String("name", name), slog.Any("error", err))
		}
	}()
	return srv
}
