package storage

import (
	"context"
	"path/filepath"
	"testing"

	"nft_market/internal/event"

	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *Storage {
	s, err := NewStorage(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func listed(seq uint64, badgeID, assetID string) event.Event {
	return &event.ListedEvent{
		BaseEvent: event.BaseEvent{Seq: seq, Ts: int64(seq) * 1000},
		BadgeID:   badgeID,
		AssetID:   assetID,
		Price:     decimal.NewFromInt(20),
	}
}

func TestSaveAndReadEvents(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	// 1. Empty journal
	last, err := s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq failed: %v", err)
	}
	if last != 0 {
		t.Errorf("expected last seq 0, got %d", last)
	}

	// 2. Append
	evs := []event.Event{
		listed(1, "{b1}", "#1#"),
		listed(2, "{b2}", "#2#"),
		&event.CollectedEvent{BaseEvent: event.BaseEvent{Seq: 3}, BadgeID: "{b1}", AssetID: "#1#", Amount: decimal.NewFromInt(15)},
		&event.FeesCollectedEvent{BaseEvent: event.BaseEvent{Seq: 4}, Amount: decimal.NewFromInt(5)},
	}
	for _, ev := range evs {
		if err := s.SaveEvent(ctx, "component_test", ev); err != nil {
			t.Fatalf("SaveEvent(%d) failed: %v", ev.GetSeq(), err)
		}
	}

	// 3. Read back
	last, _ = s.LastSeq(ctx)
	if last != 4 {
		t.Errorf("expected last seq 4, got %d", last)
	}

	entries, err := s.Events(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Seq != 2 || entries[1].Seq != 3 {
		t.Errorf("expected seqs 2,3, got %d,%d", entries[0].Seq, entries[1].Seq)
	}
	if entries[1].Type != string(event.TypeCollected) {
		t.Errorf("expected type COLLECTED, got %s", entries[1].Type)
	}
	if entries[0].Market != "component_test" {
		t.Errorf("expected market component_test, got %s", entries[0].Market)
	}

	all, _ := s.Events(ctx, 0, 0)
	if len(all) != 4 {
		t.Errorf("expected 4 entries, got %d", len(all))
	}
}

func TestEventsForBadgeAndAsset(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	s.SaveEvent(ctx, "m", listed(1, "{b1}", "#1#"))
	s.SaveEvent(ctx, "m", listed(2, "{b2}", "#2#"))
	s.SaveEvent(ctx, "m", &event.CancelledEvent{BaseEvent: event.BaseEvent{Seq: 3}, BadgeID: "{b1}", AssetID: "#1#"})
	s.SaveEvent(ctx, "m", listed(4, "{b3}", "#1#"))

	byBadge, err := s.EventsForBadge(ctx, "{b1}")
	if err != nil {
		t.Fatalf("EventsForBadge failed: %v", err)
	}
	if len(byBadge) != 2 {
		t.Errorf("expected 2 entries for {b1}, got %d", len(byBadge))
	}

	byAsset, err := s.EventsForAsset(ctx, "#1#")
	if err != nil {
		t.Fatalf("EventsForAsset failed: %v", err)
	}
	if len(byAsset) != 3 {
		t.Errorf("expected 3 entries for #1#, got %d", len(byAsset))
	}
}

func TestSaveEventRejectsDuplicatesAndUnstamped(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	if err := s.SaveEvent(ctx, "m", listed(0, "{b1}", "#1#")); err == nil {
		t.Error("expected error for unstamped event")
	}
	if err := s.SaveEvent(ctx, "m", listed(1, "{b1}", "#1#")); err != nil {
		t.Fatalf("SaveEvent failed: %v", err)
	}
	if err := s.SaveEvent(ctx, "m", listed(1, "{b2}", "#2#")); err == nil {
		t.Error("expected error for duplicate seq")
	}
}
