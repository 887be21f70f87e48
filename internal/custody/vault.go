package custody

import (
	"errors"
	"fmt"
	"sort"

	"nft_market/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrUnderflow is returned when a bucket or vault is asked for more than it holds.
var ErrUnderflow = errors.New("custody underflow")

// AssetVault holds uniquely-identified items of a single resource, keyed by id.
type AssetVault struct {
	resource string
	items    map[string]Asset
}

// NewAssetVault creates an empty vault for resource.
func NewAssetVault(resource string) *AssetVault {
	return &AssetVault{
		resource: resource,
		items:    make(map[string]Asset),
	}
}

// Resource returns the vault's resource type.
func (v *AssetVault) Resource() string { return v.resource }

// Put deposits an asset.
func (v *AssetVault) Put(a Asset) error {
	if a.resource != v.resource {
		return fmt.Errorf("%w: expected %s, got %s", domain.ErrWrongAssetType, v.resource, a.resource)
	}
	if _, ok := v.items[a.id]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, a)
	}
	v.items[a.id] = a
	return nil
}

// Take withdraws the asset with id.
func (v *AssetVault) Take(id string) (Asset, error) {
	a, ok := v.items[id]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s#%s", domain.ErrAssetNotFound, v.resource, id)
	}
	delete(v.items, id)
	return a, nil
}

// Contains reports whether the vault holds id.
func (v *AssetVault) Contains(id string) bool {
	_, ok := v.items[id]
	return ok
}

// Len returns the number of held assets.
func (v *AssetVault) Len() int { return len(v.items) }

// IDs returns the held ids in sorted order.
func (v *AssetVault) IDs() []string {
	ids := make([]string, 0, len(v.items))
	for id := range v.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CurrencyVault holds a fungible amount of a single currency resource.
type CurrencyVault struct {
	resource string
	amount   decimal.Decimal
}

// NewCurrencyVault creates an empty vault for resource.
func NewCurrencyVault(resource string) *CurrencyVault {
	return &CurrencyVault{resource: resource, amount: decimal.Zero}
}

// Resource returns the vault's currency resource.
func (v *CurrencyVault) Resource() string { return v.resource }

// Amount returns the vault balance.
func (v *CurrencyVault) Amount() decimal.Decimal { return v.amount }

// Put deposits the whole bucket, leaving it empty.
func (v *CurrencyVault) Put(f *Funds) error {
	if f == nil {
		return nil
	}
	if f.resource != v.resource {
		return fmt.Errorf("%w: expected %s, got %s", domain.ErrWrongAssetType, v.resource, f.resource)
	}
	v.amount = v.amount.Add(f.amount)
	f.amount = decimal.Zero
	return nil
}

// Take withdraws amount into a new bucket.
func (v *CurrencyVault) Take(amount decimal.Decimal) (*Funds, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative take %s", ErrUnderflow, amount)
	}
	if v.amount.LessThan(amount) {
		return nil, fmt.Errorf("%w: %s need %s, available %s", ErrUnderflow, v.resource, amount, v.amount)
	}
	v.amount = v.amount.Sub(amount)
	return &Funds{resource: v.resource, amount: amount}, nil
}

// TakeAll drains the vault. An empty vault yields a zero-amount bucket.
func (v *CurrencyVault) TakeAll() *Funds {
	f := &Funds{resource: v.resource, amount: v.amount}
	v.amount = decimal.Zero
	return f
}

// VerifyInvariant checks that the balance is non-negative.
func (v *CurrencyVault) VerifyInvariant() error {
	if v.amount.IsNegative() {
		return fmt.Errorf("%w: VAULT_NEGATIVE_AMOUNT %s = %s", domain.ErrInvariantViolated, v.resource, v.amount)
	}
	return nil
}
