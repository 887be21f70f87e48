package market

import (
	"fmt"

	"nft_market/internal/custody"
	"nft_market/internal/domain"
	"nft_market/internal/event"

	"github.com/shopspring/decimal"
)

// SplitFee divides price into the treasury fee and the seller's proceeds.
// The fee is rounded toward zero at the currency's divisibility, and proceeds
// are price minus that fee, so fee + proceeds == price exactly.
func SplitFee(price, rate decimal.Decimal, divisibility int32) (fee, proceeds decimal.Decimal) {
	fee = price.Mul(rate).RoundDown(divisibility)
	return fee, price.Sub(fee)
}

// Buy settles the offer on assetID. Exactly the listing price is taken from
// payment: the fee goes to the treasury, the rest to the proceeds vault under
// the listing badge's claim. It returns the asset and payment holding the
// caller's change.
func (m *Market) Buy(assetID string, payment *custody.Funds) (custody.Asset, *custody.Funds, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.offers[assetID]
	if !ok {
		return custody.Asset{}, payment, domain.NewOpError(domain.OpBuy, fmt.Errorf("%w: asset %s", domain.ErrNoActiveOffer, assetID))
	}
	if payment == nil {
		return custody.Asset{}, payment, domain.NewOpError(domain.OpBuy,
			fmt.Errorf("%w: need %s, got nothing", domain.ErrInsufficientPayment, o.price))
	}
	if payment.Resource() != m.cfg.CurrencyResource {
		return custody.Asset{}, payment, domain.NewOpError(domain.OpBuy,
			fmt.Errorf("%w: expected %s, got %q", domain.ErrWrongAssetType, m.cfg.CurrencyResource, payment.Resource()))
	}
	if payment.Amount().LessThan(o.price) {
		return custody.Asset{}, payment, domain.NewOpError(domain.OpBuy,
			fmt.Errorf("%w: need %s, got %s", domain.ErrInsufficientPayment, o.price, payment.Amount()))
	}
	if !m.assets.Contains(assetID) {
		return custody.Asset{}, payment, domain.NewOpError(domain.OpBuy,
			fmt.Errorf("%w: listed asset %s missing from custody", domain.ErrInvariantViolated, assetID))
	}

	fee, _ := SplitFee(o.price, m.cfg.FeeRate, m.divisibility)
	bucket, err := payment.Take(o.price)
	if err != nil {
		return custody.Asset{}, payment, domain.NewOpError(domain.OpBuy, fmt.Errorf("%w: %v", domain.ErrInsufficientPayment, err))
	}
	feeBucket, _ := bucket.Take(fee)
	_ = m.fees.Put(feeBucket)
	m.feeAmount = m.fees.Amount()
	m.feesTaken = m.feesTaken.Add(fee)

	proceeds := bucket.Amount()
	m.toCollect[o.badgeID] = proceeds
	_ = m.proceeds.Put(bucket)

	delete(m.offers, assetID)
	asset, _ := m.assets.Take(assetID)

	m.emitter.Emit(&event.PurchasedEvent{
		BaseEvent: m.base(),
		BadgeID:   o.badgeID,
		AssetID:   assetID,
		Price:     o.price,
		Fee:       fee,
		Proceeds:  proceeds,
	})
	return asset, payment, nil
}
