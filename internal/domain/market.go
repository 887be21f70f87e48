package domain

import "github.com/shopspring/decimal"

// Operation names shared by the market, the sequencer and metrics.
const (
	OpCreate      = "create"
	OpSell        = "sell"
	OpUpdate      = "update"
	OpCancel      = "cancel"
	OpBuy         = "buy"
	OpCollect     = "collect"
	OpCollectFees = "collect_fees"
)

// BadgeData is the non-fungible data embedded in every badge at mint time.
// It references the listed asset and the market that issued the badge.
type BadgeData struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	AssetResource string `json:"asset_resource"`
	AssetID       string `json:"asset_id"`
	MarketAddress string `json:"market_address"`
}

// BadgeCollection is the resource-level metadata of a market's badges.
type BadgeCollection struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags" yaml:"tags"`
	IconURL     string   `json:"icon_url" yaml:"icon_url"`
	InfoURL     string   `json:"info_url" yaml:"info_url"`
	Component   string   `json:"component" yaml:"-"` // Locked to the issuing market address
}

// Offer is the public view of an active listing.
type Offer struct {
	AssetID string          `json:"asset_id"`
	BadgeID string          `json:"badge_id"`
	Price   decimal.Decimal `json:"price"`
}

// Claim is the public view of proceeds awaiting collection.
type Claim struct {
	BadgeID string          `json:"badge_id"`
	AssetID string          `json:"asset_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// Balances summarises the market's custody.
type Balances struct {
	ListedAssets int             `json:"listed_assets"`
	LiveBadges   int             `json:"live_badges"`
	Proceeds     decimal.Decimal `json:"proceeds"`
	Pending      decimal.Decimal `json:"pending"`
	Fees         decimal.Decimal `json:"fees"`
	FeeAmount    decimal.Decimal `json:"fee_amount"`
}

// MarketSnapshot is a point-in-time copy of all market state (for state dump).
type MarketSnapshot struct {
	Address  string   `json:"address"`
	Offers   []Offer  `json:"offers"`
	Claims   []Claim  `json:"claims"`
	Balances Balances `json:"balances"`
}
