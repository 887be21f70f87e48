// Package badge issues the capability tokens that grant control over a
// listing or a pending-collection claim.
package badge

import (
	"fmt"

	"nft_market/internal/domain"

	"github.com/google/uuid"
)

// Badge is a non-fungible capability token. Possession is the only evidence
// of authorization; badges are tracked by id, never by reference.
type Badge struct {
	resource string
	id       string
}

// ID returns the badge's unique local id.
func (b Badge) ID() string { return b.id }

// Resource returns the badge resource (one per market).
func (b Badge) Resource() string { return b.resource }

// IsZero reports whether b was never minted.
func (b Badge) IsZero() bool { return b.id == "" }

func (b Badge) String() string { return b.resource + ":" + b.id }

// Authority is the internal mint/burn permission of an Issuer. Only the
// holder of the value returned by NewIssuer can mint or burn.
type Authority struct {
	token uuid.UUID
}

// Issuer mints and burns badges of a single resource.
type Issuer struct {
	resource  string
	authority uuid.UUID
	live      map[string]domain.BadgeData
	minted    uint64
	burned    uint64
}

// NewIssuer creates an issuer for resource together with its authority.
func NewIssuer(resource string) (*Issuer, Authority) {
	token := uuid.New()
	return &Issuer{
		resource:  resource,
		authority: token,
		live:      make(map[string]domain.BadgeData),
	}, Authority{token: token}
}

// Resource returns the badge resource address.
func (i *Issuer) Resource() string { return i.resource }

func (i *Issuer) authorize(auth Authority) error {
	if auth.token == uuid.Nil || auth.token != i.authority {
		return domain.ErrMintDenied
	}
	return nil
}

// Mint issues one fresh badge carrying data. Ids are random uuids and are
// never reissued while live.
func (i *Issuer) Mint(auth Authority, data domain.BadgeData) (Badge, error) {
	if err := i.authorize(auth); err != nil {
		return Badge{}, err
	}
	id := "{" + uuid.NewString() + "}"
	for {
		if _, taken := i.live[id]; !taken {
			break
		}
		id = "{" + uuid.NewString() + "}"
	}
	i.live[id] = data
	i.minted++
	return Badge{resource: i.resource, id: id}, nil
}

// Burn destroys a live badge.
func (i *Issuer) Burn(auth Authority, b Badge) error {
	if err := i.authorize(auth); err != nil {
		return err
	}
	if b.resource != i.resource {
		return fmt.Errorf("%w: badge %s", domain.ErrWrongAssetType, b)
	}
	if _, ok := i.live[b.id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownBadge, b.id)
	}
	delete(i.live, b.id)
	i.burned++
	return nil
}

// Data returns the mint-time data of a live badge.
func (i *Issuer) Data(id string) (domain.BadgeData, bool) {
	d, ok := i.live[id]
	return d, ok
}

// IsLive reports whether id is minted and not yet burned.
func (i *Issuer) IsLive(id string) bool {
	_, ok := i.live[id]
	return ok
}

// Supply returns the number of live badges.
func (i *Issuer) Supply() int { return len(i.live) }

// Totals returns the lifetime minted and burned counts.
func (i *Issuer) Totals() (minted, burned uint64) { return i.minted, i.burned }
