package market

import (
	"fmt"

	"nft_market/internal/custody"
	"nft_market/internal/domain"
	"nft_market/internal/event"

	"github.com/shopspring/decimal"
)

// CollectFees drains the fee treasury for the holder of the fee authority.
// An empty treasury yields a zero-amount bucket. The check is on the proof's
// resource, so it relies on the hosting ledger issuing fee-authority buckets
// only to the fee owner.
func (m *Market) CollectFees(proof custody.Proof) (*custody.Funds, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if proof.Resource() == "" || proof.Resource() != m.cfg.FeeAuthorityResource {
		return nil, domain.NewOpError(domain.OpCollectFees,
			fmt.Errorf("%w: fee authority %s required", domain.ErrUnauthorized, m.cfg.FeeAuthorityResource))
	}

	m.feeAmount = decimal.Zero
	funds := m.fees.TakeAll()
	m.feesSwept = m.feesSwept.Add(funds.Amount())

	m.emitter.Emit(&event.FeesCollectedEvent{BaseEvent: m.base(), Amount: funds.Amount()})
	return funds, nil
}
