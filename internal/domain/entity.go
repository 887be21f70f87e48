package domain

import (
	"time"
)

// JournalEntry is one persisted market event
type JournalEntry struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement:false" json:"seq"`
	Market    string    `gorm:"index" json:"market"`
	Type      string    `gorm:"index" json:"type"`
	BadgeID   string    `gorm:"index" json:"badge_id"`
	AssetID   string    `gorm:"index" json:"asset_id"`
	Payload   string    `json:"payload"`    // JSON envelope as broadcast on the feed
	EventTsM  int64     `json:"event_ts_m"` // Unix Microseconds
	CreatedAt time.Time `json:"created_at"`
}
