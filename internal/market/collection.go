package market

import (
	"fmt"

	"nft_market/internal/badge"
	"nft_market/internal/custody"
	"nft_market/internal/domain"
	"nft_market/internal/event"
)

// Collect burns b and releases the proceeds recorded for it.
func (m *Market) Collect(b badge.Badge) (*custody.Funds, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assetID, err := m.checkBadge(b)
	if err != nil {
		return nil, domain.NewOpError(domain.OpCollect, err)
	}
	amount, ok := m.toCollect[b.ID()]
	if !ok {
		return nil, domain.NewOpError(domain.OpCollect, fmt.Errorf("%w: badge %s", domain.ErrAlreadyCollected, b.ID()))
	}
	if m.proceeds.Amount().LessThan(amount) {
		return nil, domain.NewOpError(domain.OpCollect,
			fmt.Errorf("%w: owed %s exceeds proceeds %s", domain.ErrInvariantViolated, amount, m.proceeds.Amount()))
	}

	if err := m.issuer.Burn(m.authority, b); err != nil {
		return nil, domain.NewOpError(domain.OpCollect, err)
	}
	delete(m.badges, b.ID())
	delete(m.toCollect, b.ID())
	funds, _ := m.proceeds.Take(amount)

	m.emitter.Emit(&event.CollectedEvent{BaseEvent: m.base(), BadgeID: b.ID(), AssetID: assetID, Amount: amount})
	return funds, nil
}
