package app

import (
	"context"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nft_market/internal/custody"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, iconURL string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := `
market:
  badge:
    name: seller badges
    icon_url: "` + iconURL + `"
  listable_resource: nft
  currency_resource: xrd
  fee_authority_resource: owner
  fee_rate: "0.25"
engine:
  verify_invariants: true
  dump_path: ` + filepath.Join(dir, "dump.json") + `
storage:
  path: ` + filepath.Join(dir, "journal.db") + `
assets:
  icon_dir: ` + filepath.Join(dir, "icons") + `
  icon_size: 16
logging:
  level: warn
  dir: ` + filepath.Join(dir, "logs") + `
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func TestBootstrap_EndToEnd(t *testing.T) {
	path := writeConfig(t, "")

	b := NewBootstrap()
	require.NoError(t, b.Initialize(path))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Sequencer.Run(ctx)

	badge, err := b.Sequencer.Sell(ctx, custody.NewAsset("nft", "#1#"), decimal.NewFromInt(20))
	require.NoError(t, err)
	payment, err := custody.NewFunds("xrd", decimal.NewFromInt(20))
	require.NoError(t, err)
	_, _, err = b.Sequencer.Buy(ctx, "#1#", payment)
	require.NoError(t, err)
	proceeds, err := b.Sequencer.Collect(ctx, badge)
	require.NoError(t, err)
	require.True(t, proceeds.Amount().Equal(decimal.NewFromInt(15)))

	last, err := b.Storage.LastSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), last)

	history, err := b.Storage.EventsForBadge(ctx, badge.ID())
	require.NoError(t, err)
	require.Len(t, history, 3)

	require.Equal(t, uint64(3), b.Metrics.Snapshot().EventsSaved)

	srv := httptest.NewServer(b.MetricsHandler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.True(t, strings.Contains(string(body), `nft_market_fee_vault{market="`+b.Market.Address()+`"} 5`), string(body))
}

func TestBootstrap_ResumesJournalSequence(t *testing.T) {
	path := writeConfig(t, "")

	first := NewBootstrap()
	require.NoError(t, first.Initialize(path))
	ctx, cancel := context.WithCancel(context.Background())
	go first.Sequencer.Run(ctx)
	_, err := first.Sequencer.Sell(ctx, custody.NewAsset("nft", "#1#"), decimal.NewFromInt(1))
	require.NoError(t, err)
	cancel()
	require.NoError(t, first.Close())

	second := NewBootstrap()
	require.NoError(t, second.Initialize(path))
	defer second.Close()
	require.Equal(t, uint64(2), second.Sequencer.NextSeq())
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("market:\n  fee_rate: \"2\"\n"), 0644))

	b := NewBootstrap()
	require.Error(t, b.Initialize(path))
	require.Error(t, NewBootstrap().Initialize(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestBootstrap_BadgeIcon(t *testing.T) {
	icon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		imaging.Encode(w, imaging.New(48, 48, color.White), imaging.PNG)
	}))
	defer icon.Close()

	b := NewBootstrap()
	require.NoError(t, b.Initialize(writeConfig(t, icon.URL+"/icon.png")))
	defer b.Close()

	srv := httptest.NewServer(b.FeedHandler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/badge/icon.png")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	b.SyncBadgeIcon(context.Background())

	resp, err = srv.Client().Get(srv.URL + "/badge/icon.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	img, err := imaging.Decode(resp.Body)
	require.NoError(t, err)
	require.Equal(t, 16, img.Bounds().Dx())
}
