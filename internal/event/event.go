package event

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Type identifies a market event
type Type string

const (
	TypeListed        Type = "LISTED"
	TypeRepriced      Type = "REPRICED"
	TypeCancelled     Type = "CANCELLED"
	TypePurchased     Type = "PURCHASED"
	TypeCollected     Type = "COLLECTED"
	TypeFeesCollected Type = "FEES_COLLECTED"
)

// Event is a state transition emitted by the market.
// Seq is zero until the sequencer stamps it.
type Event interface {
	GetSeq() uint64
	SetSeq(seq uint64)
	GetTs() int64
	GetType() Type
	// Refs returns the badge and asset the event concerns ("" when none).
	Refs() (badgeID, assetID string)
}

// BaseEvent carries the sequence number and timestamp (Unix Microseconds).
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (b *BaseEvent) GetSeq() uint64 { return b.Seq }
func (b *BaseEvent) SetSeq(seq uint64) { b.Seq = seq }
func (b *BaseEvent) GetTs() int64 { return b.Ts }

// ListedEvent: a badge was minted and the asset deposited.
type ListedEvent struct {
	BaseEvent
	BadgeID string          `json:"badge_id"`
	AssetID string          `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
}

func (e *ListedEvent) GetType() Type { return TypeListed }
func (e *ListedEvent) Refs() (string, string) { return e.BadgeID, e.AssetID }

// RepricedEvent: the offer price changed, badge unchanged.
type RepricedEvent struct {
	BaseEvent
	BadgeID  string          `json:"badge_id"`
	AssetID  string          `json:"asset_id"`
	OldPrice decimal.Decimal `json:"old_price"`
	Price    decimal.Decimal `json:"price"`
}

func (e *RepricedEvent) GetType() Type { return TypeRepriced }
func (e *RepricedEvent) Refs() (string, string) { return e.BadgeID, e.AssetID }

// CancelledEvent: the badge was burned and the asset returned.
type CancelledEvent struct {
	BaseEvent
	BadgeID string `json:"badge_id"`
	AssetID string `json:"asset_id"`
}

func (e *CancelledEvent) GetType() Type { return TypeCancelled }
func (e *CancelledEvent) Refs() (string, string) { return e.BadgeID, e.AssetID }

// PurchasedEvent: the asset left custody; Proceeds await collection.
type PurchasedEvent struct {
	BaseEvent
	BadgeID  string          `json:"badge_id"`
	AssetID  string          `json:"asset_id"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	Proceeds decimal.Decimal `json:"proceeds"`
}

func (e *PurchasedEvent) GetType() Type { return TypePurchased }
func (e *PurchasedEvent) Refs() (string, string) { return e.BadgeID, e.AssetID }

// CollectedEvent: the badge was burned and its proceeds released.
type CollectedEvent struct {
	BaseEvent
	BadgeID string          `json:"badge_id"`
	AssetID string          `json:"asset_id"`
	Amount  decimal.Decimal `json:"amount"`
}

func (e *CollectedEvent) GetType() Type { return TypeCollected }
func (e *CollectedEvent) Refs() (string, string) { return e.BadgeID, e.AssetID }

// FeesCollectedEvent: the fee treasury was swept.
type FeesCollectedEvent struct {
	BaseEvent
	Amount decimal.Decimal `json:"amount"`
}

func (e *FeesCollectedEvent) GetType() Type { return TypeFeesCollected }
func (e *FeesCollectedEvent) Refs() (string, string) { return "", "" }

// Envelope is the wire form of an event on the feed and in the journal.
type Envelope struct {
	Seq  uint64 `json:"seq"`
	Type Type   `json:"type"`
	Ts   int64  `json:"ts"`
	Data Event  `json:"data"`
}

// Encode marshals ev inside an Envelope.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(Envelope{
		Seq:  ev.GetSeq(),
		Type: ev.GetType(),
		Ts:   ev.GetTs(),
		Data: ev,
	})
}

// Emitter receives events from the market.
type Emitter interface {
	Emit(ev Event)
}

// NoopEmitter discards events.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// Buffer collects emitted events until drained.
type Buffer struct {
	events []Event
}

func (b *Buffer) Emit(ev Event) { b.events = append(b.events, ev) }

// Drain returns and clears the buffered events.
func (b *Buffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}
