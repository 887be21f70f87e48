package infra

import (
	"strings"
	"testing"

	"nft_market/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

type fixedBalances domain.Balances

func (f fixedBalances) Balances() domain.Balances { return domain.Balances(f) }

func TestMetricsCollector(t *testing.T) {
	m := &Metrics{}
	m.RecordOp(domain.OpSell, 10, nil)
	m.RecordOp(domain.OpBuy, 10, nil)
	m.RecordOp(domain.OpBuy, 10, domain.ErrInsufficientPayment)
	m.IncrementConnections()

	bal := fixedBalances{
		ListedAssets: 2,
		LiveBadges:   3,
		Proceeds:     decimal.NewFromInt(30),
		Pending:      decimal.NewFromInt(30),
		Fees:         decimal.RequireFromString("7.5"),
		FeeAmount:    decimal.RequireFromString("7.5"),
	}
	c := NewMetricsCollector(m, bal, "component_test")

	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	expected := `
# HELP nft_market_fee_vault Currency held in the fee treasury.
# TYPE nft_market_fee_vault gauge
nft_market_fee_vault{market="component_test"} 7.5
# HELP nft_market_live_badges Badges minted and not yet burned.
# TYPE nft_market_live_badges gauge
nft_market_live_badges{market="component_test"} 3
# HELP nft_market_rejected_total Market commands rejected with an error.
# TYPE nft_market_rejected_total counter
nft_market_rejected_total{market="component_test"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"nft_market_fee_vault", "nft_market_live_badges", "nft_market_rejected_total")
	if err != nil {
		t.Errorf("Unexpected metrics: %v", err)
	}

	if n := testutil.CollectAndCount(c, "nft_market_operations_total"); n != 6 {
		t.Errorf("Expected 6 operation series, got %d", n)
	}
}

func TestMetricsCollector_NoBalances(t *testing.T) {
	c := NewMetricsCollector(&Metrics{}, nil, "m")
	if n := testutil.CollectAndCount(c); n != 10 {
		t.Errorf("Expected 10 series without balances, got %d", n)
	}
}
