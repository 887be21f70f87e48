package market

import (
	"fmt"

	"nft_market/internal/badge"
	"nft_market/internal/custody"
	"nft_market/internal/domain"
	"nft_market/internal/event"

	"github.com/shopspring/decimal"
)

// Sell deposits asset, lists it at price and returns a fresh badge that
// controls the listing.
func (m *Market) Sell(asset custody.Asset, price decimal.Decimal) (badge.Badge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if price.IsNegative() {
		return badge.Badge{}, domain.NewOpError(domain.OpSell, fmt.Errorf("%w: %s", domain.ErrInvalidPrice, price))
	}
	if asset.Resource() != m.cfg.ListableResource {
		return badge.Badge{}, domain.NewOpError(domain.OpSell,
			fmt.Errorf("%w: expected %s, got %q", domain.ErrWrongAssetType, m.cfg.ListableResource, asset.Resource()))
	}
	if m.assets.Contains(asset.ID()) {
		return badge.Badge{}, domain.NewOpError(domain.OpSell, fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, asset))
	}

	b, err := m.issuer.Mint(m.authority, domain.BadgeData{
		Name:          badgeName,
		Description:   badgeDescription,
		AssetResource: m.cfg.ListableResource,
		AssetID:       asset.ID(),
		MarketAddress: m.address,
	})
	if err != nil {
		return badge.Badge{}, domain.NewOpError(domain.OpSell, err)
	}
	m.badges[b.ID()] = asset.ID()
	m.offers[asset.ID()] = offer{badgeID: b.ID(), price: price}
	if err := m.assets.Put(asset); err != nil {
		// Unreachable after the checks above; undo so the call stays atomic.
		delete(m.offers, asset.ID())
		delete(m.badges, b.ID())
		_ = m.issuer.Burn(m.authority, b)
		return badge.Badge{}, domain.NewOpError(domain.OpSell, err)
	}

	m.emitter.Emit(&event.ListedEvent{BaseEvent: m.base(), BadgeID: b.ID(), AssetID: asset.ID(), Price: price})
	return b, nil
}

// Update re-prices the listing controlled by b and hands b back unchanged.
func (m *Market) Update(b badge.Badge, price decimal.Decimal) (badge.Badge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if price.IsNegative() {
		return b, domain.NewOpError(domain.OpUpdate, fmt.Errorf("%w: %s", domain.ErrInvalidPrice, price))
	}
	assetID, err := m.checkBadge(b)
	if err != nil {
		return b, domain.NewOpError(domain.OpUpdate, err)
	}
	o, err := m.activeOffer(assetID, b.ID())
	if err != nil {
		return b, domain.NewOpError(domain.OpUpdate, err)
	}

	m.offers[assetID] = offer{badgeID: b.ID(), price: price}

	m.emitter.Emit(&event.RepricedEvent{BaseEvent: m.base(), BadgeID: b.ID(), AssetID: assetID, OldPrice: o.price, Price: price})
	return b, nil
}

// Cancel withdraws the listing controlled by b, burns b and returns the asset.
func (m *Market) Cancel(b badge.Badge) (custody.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assetID, err := m.checkBadge(b)
	if err != nil {
		return custody.Asset{}, domain.NewOpError(domain.OpCancel, err)
	}
	if _, err := m.activeOffer(assetID, b.ID()); err != nil {
		return custody.Asset{}, domain.NewOpError(domain.OpCancel, err)
	}
	if !m.assets.Contains(assetID) {
		return custody.Asset{}, domain.NewOpError(domain.OpCancel,
			fmt.Errorf("%w: listed asset %s missing from custody", domain.ErrInvariantViolated, assetID))
	}

	if err := m.issuer.Burn(m.authority, b); err != nil {
		return custody.Asset{}, domain.NewOpError(domain.OpCancel, err)
	}
	delete(m.badges, b.ID())
	delete(m.offers, assetID)
	asset, _ := m.assets.Take(assetID)

	m.emitter.Emit(&event.CancelledEvent{BaseEvent: m.base(), BadgeID: b.ID(), AssetID: assetID})
	return asset, nil
}
