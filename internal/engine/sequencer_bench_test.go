package engine

import (
	"context"
	"fmt"
	"testing"

	"nft_market/internal/custody"
	"nft_market/internal/market"

	"github.com/shopspring/decimal"
)

// BenchmarkSequencer_Process measures one sell+buy+collect cycle without channel overhead.
func BenchmarkSequencer_Process(b *testing.B) {
	seq := NewSequencer(newTestMarket(b, "0.025"), nil, nil, nil, Options{})
	price := decimal.NewFromInt(100)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("#%d#", i)
		res := seq.process(command{op: "sell", apply: func(m *market.Market) (any, error) {
			return m.Sell(custody.NewAsset(testNFT, id), price)
		}})
		if res.err != nil {
			b.Fatal(res.err)
		}
		payment, _ := custody.NewFunds(testXRD, price)
		if res := seq.process(command{op: "buy", apply: func(m *market.Market) (any, error) {
			_, _, err := m.Buy(id, payment)
			return nil, err
		}}); res.err != nil {
			b.Fatal(res.err)
		}
	}
}

// BenchmarkSequencer_FullPipeline measures end-to-end command processing.
// Note: This benchmark includes channel overhead.
func BenchmarkSequencer_FullPipeline(b *testing.B) {
	seq := NewSequencer(newTestMarket(b, "0.025"), nil, nil, nil, Options{InboxSize: 1024})
	price := decimal.NewFromInt(100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go seq.Run(ctx)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		id := fmt.Sprintf("#%d#", i)
		badge, err := seq.Sell(ctx, custody.NewAsset(testNFT, id), price)
		if err != nil {
			b.Fatal(err)
		}
		payment, _ := custody.NewFunds(testXRD, price)
		if _, _, err := seq.Buy(ctx, id, payment); err != nil {
			b.Fatal(err)
		}
		if _, err := seq.Collect(ctx, badge); err != nil {
			b.Fatal(err)
		}
	}
}
