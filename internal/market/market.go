// Package market implements the listing, escrow and fee state machine of a
// secondary market for unique assets.
//
// Every operation validates all of its preconditions before the first
// mutation, so a returned error means the market is exactly as it was before
// the call. Operations are serialised by the market's mutex; in the running
// service a single engine.Sequencer owns the market.
package market

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"nft_market/internal/badge"
	"nft_market/internal/custody"
	"nft_market/internal/domain"
	"nft_market/internal/event"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	badgeName        = "market seller badge"
	badgeDescription = "this badge allows you to interact with your offer in the secondary market"

	// DefaultDivisibility is the decimal precision of currency amounts.
	DefaultDivisibility int32 = 18
)

// Divisibility returns a pointer for Config.CurrencyDivisibility.
func Divisibility(n int32) *int32 { return &n }

// Config fixes a market at instantiation. Nothing in it can change afterwards.
type Config struct {
	ListableResource     string
	CurrencyResource     string
	FeeAuthorityResource string
	FeeRate              decimal.Decimal
	CurrencyDivisibility *int32 // Nil selects DefaultDivisibility
	Collection           domain.BadgeCollection
}

type offer struct {
	badgeID string
	price   decimal.Decimal
}

// Market owns the registries and vaults of one market instance.
type Market struct {
	mu sync.Mutex

	address      string
	cfg          Config
	divisibility int32
	issuer       *badge.Issuer
	authority    badge.Authority

	assets   *custody.AssetVault
	proceeds *custody.CurrencyVault
	fees     *custody.CurrencyVault

	badges    map[string]string          // badge id -> asset id
	offers    map[string]offer           // asset id -> (badge id, price)
	toCollect map[string]decimal.Decimal // badge id -> amount owed

	feeAmount decimal.Decimal
	feesTaken decimal.Decimal
	feesSwept decimal.Decimal

	emitter event.Emitter
	nowFn   func() int64
}

// Create instantiates a market with empty vaults and registries and a badge
// issuer scoped to the new market's address.
func Create(cfg Config) (*Market, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, domain.NewOpError(domain.OpCreate, err)
	}

	address := "component_" + uuid.NewString()
	issuer, authority := badge.NewIssuer("badge_" + address)
	cfg.Collection.Component = address
	if cfg.Collection.Name == "" {
		cfg.Collection.Name = "secondary market badges"
	}
	if cfg.Collection.Description == "" {
		cfg.Collection.Description = "Seller badge for secondary market"
	}

	return &Market{
		address:      address,
		cfg:          cfg,
		divisibility: *cfg.CurrencyDivisibility,
		issuer:       issuer,
		authority:    authority,
		assets:       custody.NewAssetVault(cfg.ListableResource),
		proceeds:     custody.NewCurrencyVault(cfg.CurrencyResource),
		fees:         custody.NewCurrencyVault(cfg.CurrencyResource),
		badges:       make(map[string]string),
		offers:       make(map[string]offer),
		toCollect:    make(map[string]decimal.Decimal),
		feeAmount:    decimal.Zero,
		feesTaken:    decimal.Zero,
		feesSwept:    decimal.Zero,
		emitter:      event.NoopEmitter{},
		nowFn:        func() int64 { return time.Now().UnixMicro() },
	}, nil
}

func validateConfig(cfg *Config) error {
	if cfg.ListableResource == "" || cfg.CurrencyResource == "" || cfg.FeeAuthorityResource == "" {
		return fmt.Errorf("%w: listable, currency and fee authority resources are required", domain.ErrWrongAssetType)
	}
	if cfg.ListableResource == cfg.CurrencyResource {
		return fmt.Errorf("%w: listable and currency resources must differ", domain.ErrWrongAssetType)
	}
	if cfg.FeeRate.IsNegative() || cfg.FeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s not in [0, 1]", domain.ErrInvalidFeeRate, cfg.FeeRate)
	}
	if cfg.CurrencyDivisibility == nil {
		cfg.CurrencyDivisibility = Divisibility(DefaultDivisibility)
	} else {
		cfg.CurrencyDivisibility = Divisibility(*cfg.CurrencyDivisibility)
	}
	if d := *cfg.CurrencyDivisibility; d < 0 || d > DefaultDivisibility {
		return fmt.Errorf("currency divisibility %d not in [0, %d]", d, DefaultDivisibility)
	}
	return nil
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (m *Market) SetEmitter(emitter event.Emitter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if emitter == nil {
		m.emitter = event.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// SetNowFunc overrides the event timestamp source (Unix Microseconds).
func (m *Market) SetNowFunc(now func() int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now == nil {
		m.nowFn = func() int64 { return time.Now().UnixMicro() }
		return
	}
	m.nowFn = now
}

func (m *Market) base() event.BaseEvent {
	return event.BaseEvent{Ts: m.nowFn()}
}

// Address returns the market's own identity.
func (m *Market) Address() string { return m.address }

// BadgeResource returns the resource of the badges this market issues.
func (m *Market) BadgeResource() string { return m.issuer.Resource() }

// FeeRate returns the immutable fee rate.
func (m *Market) FeeRate() decimal.Decimal { return m.cfg.FeeRate }

// Config returns a copy of the instantiation config.
func (m *Market) Config() Config {
	cfg := m.cfg
	cfg.CurrencyDivisibility = Divisibility(m.divisibility)
	return cfg
}

// CurrencyDivisibility returns the decimal places fees are rounded to.
func (m *Market) CurrencyDivisibility() int32 { return m.divisibility }

// BadgeCollection returns the badge resource metadata.
func (m *Market) BadgeCollection() domain.BadgeCollection {
	c := m.cfg.Collection
	c.Tags = append([]string(nil), c.Tags...)
	return c
}

// BadgeData returns the mint-time data of a live badge.
func (m *Market) BadgeData(badgeID string) (domain.BadgeData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issuer.Data(badgeID)
}

// Offer returns the active offer for assetID.
func (m *Market) Offer(assetID string) (domain.Offer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[assetID]
	if !ok {
		return domain.Offer{}, false
	}
	return domain.Offer{AssetID: assetID, BadgeID: o.badgeID, Price: o.price}, true
}

// AssetForBadge returns the asset a live badge was minted for.
func (m *Market) AssetForBadge(badgeID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.badges[badgeID]
	return a, ok
}

// PendingCollection returns the proceeds owed to badgeID.
func (m *Market) PendingCollection(badgeID string) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amt, ok := m.toCollect[badgeID]
	return amt, ok
}

// FeeAmount returns the tracked fee counter (reset by CollectFees).
func (m *Market) FeeAmount() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.feeAmount
}

// Listings returns all active offers sorted by asset id.
func (m *Market) Listings() []domain.Offer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings()
}

func (m *Market) listings() []domain.Offer {
	out := make([]domain.Offer, 0, len(m.offers))
	for assetID, o := range m.offers {
		out = append(out, domain.Offer{AssetID: assetID, BadgeID: o.badgeID, Price: o.price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out
}

func (m *Market) claims() []domain.Claim {
	out := make([]domain.Claim, 0, len(m.toCollect))
	for badgeID, amt := range m.toCollect {
		out = append(out, domain.Claim{BadgeID: badgeID, AssetID: m.badges[badgeID], Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BadgeID < out[j].BadgeID })
	return out
}

// Balances returns custody totals.
func (m *Market) Balances() domain.Balances {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances()
}

func (m *Market) balances() domain.Balances {
	pending := decimal.Zero
	for _, amt := range m.toCollect {
		pending = pending.Add(amt)
	}
	return domain.Balances{
		ListedAssets: m.assets.Len(),
		LiveBadges:   m.issuer.Supply(),
		Proceeds:     m.proceeds.Amount(),
		Pending:      pending,
		Fees:         m.fees.Amount(),
		FeeAmount:    m.feeAmount,
	}
}

// Snapshot returns a copy of all market state.
func (m *Market) Snapshot() domain.MarketSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.MarketSnapshot{
		Address:  m.address,
		Offers:   m.listings(),
		Claims:   m.claims(),
		Balances: m.balances(),
	}
}

// checkBadge resolves a presented badge to the asset it was minted for.
func (m *Market) checkBadge(b badge.Badge) (string, error) {
	if b.Resource() != m.issuer.Resource() {
		return "", fmt.Errorf("%w: badge resource %q", domain.ErrWrongAssetType, b.Resource())
	}
	assetID, ok := m.badges[b.ID()]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownBadge, b.ID())
	}
	return assetID, nil
}

// activeOffer returns the offer for assetID only when it is held by badgeID.
func (m *Market) activeOffer(assetID, badgeID string) (offer, error) {
	o, ok := m.offers[assetID]
	if !ok || o.badgeID != badgeID {
		return offer{}, fmt.Errorf("%w: badge %s", domain.ErrNoActiveOffer, badgeID)
	}
	return o, nil
}
