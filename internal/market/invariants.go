package market

import (
	"fmt"

	"nft_market/internal/domain"

	"github.com/shopspring/decimal"
)

// VerifyInvariants checks the registry and vault invariants.
// Call this after any state change to ensure data integrity.
func (m *Market) VerifyInvariants() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Every offer's badge maps back to the offered asset
	offered := make(map[string]bool, len(m.offers))
	for assetID, o := range m.offers {
		if m.badges[o.badgeID] != assetID {
			return violation("OFFER_BADGE_MISMATCH: asset %s offered under badge %s mapped to %q",
				assetID, o.badgeID, m.badges[o.badgeID])
		}
		if offered[o.badgeID] {
			return violation("BADGE_HOLDS_TWO_OFFERS: %s", o.badgeID)
		}
		offered[o.badgeID] = true

		// Non-negative prices
		if o.price.IsNegative() {
			return violation("NEGATIVE_PRICE: asset %s = %s", assetID, o.price)
		}
	}

	// Each live badge is in exactly one of offers / to_collect
	for badgeID := range m.badges {
		_, pending := m.toCollect[badgeID]
		if offered[badgeID] == pending {
			return violation("BADGE_STATE_AMBIGUOUS: %s offered=%t pending=%t", badgeID, offered[badgeID], pending)
		}
		if !m.issuer.IsLive(badgeID) {
			return violation("BADGE_NOT_LIVE: %s", badgeID)
		}
	}
	for badgeID := range m.toCollect {
		if _, ok := m.badges[badgeID]; !ok {
			return violation("CLAIM_WITHOUT_BADGE: %s", badgeID)
		}
	}
	if m.issuer.Supply() != len(m.badges) {
		return violation("BADGE_SUPPLY_MISMATCH: supply=%d registered=%d", m.issuer.Supply(), len(m.badges))
	}

	// Custody holds exactly the offered assets
	if m.assets.Len() != len(m.offers) {
		return violation("CUSTODY_SIZE_MISMATCH: vault=%d offers=%d", m.assets.Len(), len(m.offers))
	}
	for assetID := range m.offers {
		if !m.assets.Contains(assetID) {
			return violation("OFFERED_ASSET_NOT_IN_CUSTODY: %s", assetID)
		}
	}
	for _, assetID := range m.assets.IDs() {
		if _, ok := m.offers[assetID]; !ok {
			return violation("CUSTODY_ASSET_NOT_OFFERED: %s", assetID)
		}
	}

	// Owed proceeds are covered by the proceeds vault
	pending := decimal.Zero
	for _, amt := range m.toCollect {
		if amt.IsNegative() {
			return violation("NEGATIVE_CLAIM: %s", amt)
		}
		pending = pending.Add(amt)
	}
	if pending.GreaterThan(m.proceeds.Amount()) {
		return violation("PROCEEDS_UNDERFUNDED: owed=%s vault=%s", pending, m.proceeds.Amount())
	}

	// Treasury equals fees taken minus fees swept
	if want := m.feesTaken.Sub(m.feesSwept); !m.fees.Amount().Equal(want) {
		return violation("TREASURY_DRIFT: vault=%s expected=%s", m.fees.Amount(), want)
	}

	if err := m.proceeds.VerifyInvariant(); err != nil {
		return err
	}
	return m.fees.VerifyInvariant()
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvariantViolated}, args...)...)
}
