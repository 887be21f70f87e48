package custody

import (
	"fmt"

	"nft_market/internal/domain"

	"github.com/shopspring/decimal"
)

// Asset is a bucket holding exactly one uniquely-identified item.
// This is strictly identity metadata: resource type plus local id.
type Asset struct {
	resource string
	id       string
}

// NewAsset creates an asset bucket. The hosting ledger is responsible for
// handing out each (resource, id) pair only once.
func NewAsset(resource, id string) Asset {
	return Asset{resource: resource, id: id}
}

// Resource returns the asset's resource type.
func (a Asset) Resource() string { return a.resource }

// ID returns the asset's local id within its resource.
func (a Asset) ID() string { return a.id }

// IsEmpty reports whether the bucket holds nothing.
func (a Asset) IsEmpty() bool { return a.resource == "" && a.id == "" }

// CreateProof returns a proof of possession of the asset's resource.
func (a Asset) CreateProof() Proof {
	if a.IsEmpty() {
		return Proof{}
	}
	return Proof{resource: a.resource}
}

func (a Asset) String() string { return a.resource + "#" + a.id }

// Funds is a bucket of a divisible currency.
type Funds struct {
	resource string
	amount   decimal.Decimal
}

// NewFunds creates a currency bucket. Negative amounts are rejected.
// It mints the amount from nothing; only the hosting ledger should call it.
func NewFunds(resource string, amount decimal.Decimal) (*Funds, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount %s", ErrUnderflow, amount)
	}
	return &Funds{resource: resource, amount: amount}, nil
}

// EmptyFunds creates a zero-amount bucket of resource.
func EmptyFunds(resource string) *Funds {
	return &Funds{resource: resource, amount: decimal.Zero}
}

// Resource returns the currency resource type.
func (f *Funds) Resource() string {
	if f == nil {
		return ""
	}
	return f.resource
}

// Amount returns the bucket's current amount.
func (f *Funds) Amount() decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return f.amount
}

// Take splits amount off into a new bucket. It aborts with ErrUnderflow if the
// bucket holds less than amount.
func (f *Funds) Take(amount decimal.Decimal) (*Funds, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative take %s", ErrUnderflow, amount)
	}
	if f.Amount().LessThan(amount) {
		return nil, fmt.Errorf("%w: need %s, have %s", ErrUnderflow, amount, f.Amount())
	}
	f.amount = f.amount.Sub(amount)
	return &Funds{resource: f.resource, amount: amount}, nil
}

// Put merges other into f, leaving other empty.
func (f *Funds) Put(other *Funds) error {
	if other == nil {
		return nil
	}
	if other.resource != f.resource {
		return fmt.Errorf("%w: expected %s, got %s", domain.ErrWrongAssetType, f.resource, other.resource)
	}
	f.amount = f.amount.Add(other.amount)
	other.amount = decimal.Zero
	return nil
}

// CreateProof returns a proof of possession of the currency resource. An
// empty bucket proves nothing.
func (f *Funds) CreateProof() Proof {
	if f == nil || !f.amount.IsPositive() {
		return Proof{}
	}
	return Proof{resource: f.resource}
}

// Proof is evidence that the presenter holds some amount of a resource.
// Proofs come only from buckets, but buckets themselves come from NewAsset
// and NewFunds, which mint from nothing. A Proof is therefore only as
// trustworthy as the hosting ledger that hands out buckets: that ledger must
// be the sole caller of NewAsset/NewFunds for resources it controls (such as
// the fee authority).
type Proof struct {
	resource string
}

// Resource returns the proven resource, or "" for an empty proof.
func (p Proof) Resource() string { return p.resource }
