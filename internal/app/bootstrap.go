package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"nft_market/internal/engine"
	"nft_market/internal/event"
	"nft_market/internal/infra"
	"nft_market/internal/infra/feed"
	"nft_market/internal/infra/storage"
	"nft_market/internal/market"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const badgeIconName = "badge"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config    *infra.Config
	Storage   *storage.Storage
	Market    *market.Market
	Metrics   *infra.Metrics
	Registry  *prometheus.Registry
	Hub       *feed.Hub
	Icons     *infra.IconCache
	Sequencer *engine.Sequencer
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires storage, market, feed and sequencer.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("Bootstrapping NFT market...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))

	// 3. Initialize Storage (event journal)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	lastSeq, err := store.LastSeq(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read journal head: %w", err)
	}
	slog.Info("Journal opened", slog.Uint64("last_seq", lastSeq))

	// 4. Instantiate the market
	m, err := market.Create(cfg.MarketConfig())
	if err != nil {
		return err
	}
	b.Market = m
	slog.Info("Market created",
		slog.String("address", m.Address()),
		slog.String("badge_resource", m.BadgeResource()),
		slog.String("fee_rate", m.FeeRate().String()),
	)

	// 5. Observability and feed
	b.Metrics = &infra.Metrics{}
	b.Registry = prometheus.NewRegistry()
	b.Registry.MustRegister(
		collectors.NewGoCollector(),
		infra.NewMetricsCollector(b.Metrics, m, m.Address()),
	)
	b.Hub = feed.NewHub(store, b.Metrics)

	icons, err := infra.NewIconCache(cfg.Assets.IconDir, cfg.Assets.IconSize)
	if err != nil {
		return err
	}
	b.Icons = icons

	// 6. Sequencer: journal, then count, then broadcast
	b.Sequencer = engine.NewSequencer(m, store, b.Metrics, func(ev event.Event) {
		b.Metrics.RecordEvent()
		b.Hub.Publish(ev)
	}, cfg.EngineOptions(lastSeq+1))

	return nil
}

// SyncBadgeIcon caches the badge collection icon in the background.
// A missing icon is not fatal; the collection metadata keeps the remote URL.
func (b *Bootstrap) SyncBadgeIcon(ctx context.Context) {
	url := b.Config.Market.Badge.IconURL
	if url == "" {
		return
	}
	path, err := b.Icons.Fetch(ctx, badgeIconName, url)
	if err != nil {
		slog.Warn("Failed to cache badge icon", slog.String("url", url), slog.Any("error", err))
		return
	}
	slog.Info("Badge icon cached", slog.String("path", path))
}

// FeedHandler serves the websocket event feed and the cached badge icon.
func (b *Bootstrap) FeedHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/feed", b.Hub)
	mux.HandleFunc("/badge/icon.png", func(w http.ResponseWriter, r *http.Request) {
		path := b.Icons.Path(badgeIconName)
		if _, err := os.Stat(path); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, path)
	})
	return mux
}

// MetricsHandler serves Prometheus metrics.
func (b *Bootstrap) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(b.Registry, promhttp.HandlerOpts{}))
	return mux
}

// Close releases the feed and storage.
func (b *Bootstrap) Close() error {
	if b.Hub != nil {
		b.Hub.Close()
	}
	if b.Storage != nil {
		return b.Storage.Close()
	}
	return nil
}
