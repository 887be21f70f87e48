package custody

import (
	"errors"
	"testing"

	"nft_market/internal/domain"

	"github.com/shopspring/decimal"
)

func TestFunds_Take(t *testing.T) {
	t.Run("splits exact amount", func(t *testing.T) {
		f, err := NewFunds("XRD", decimal.NewFromInt(20))
		if err != nil {
			t.Fatalf("NewFunds failed: %v", err)
		}

		part, err := f.Take(decimal.NewFromInt(5))
		if err != nil {
			t.Fatalf("Take failed: %v", err)
		}
		if !part.Amount().Equal(decimal.NewFromInt(5)) {
			t.Errorf("Expected 5 taken, got %s", part.Amount())
		}
		if !f.Amount().Equal(decimal.NewFromInt(15)) {
			t.Errorf("Expected 15 left, got %s", f.Amount())
		}
	})

	t.Run("aborts on underflow", func(t *testing.T) {
		f, _ := NewFunds("XRD", decimal.NewFromInt(3))
		if _, err := f.Take(decimal.NewFromInt(5)); !errors.Is(err, ErrUnderflow) {
			t.Errorf("Expected ErrUnderflow, got %v", err)
		}
		if !f.Amount().Equal(decimal.NewFromInt(3)) {
			t.Errorf("Failed take must not change the bucket, got %s", f.Amount())
		}
	})

	t.Run("rejects negative bucket", func(t *testing.T) {
		if _, err := NewFunds("XRD", decimal.NewFromInt(-1)); err == nil {
			t.Error("Expected error for negative amount")
		}
	})
}

func TestFunds_Proof(t *testing.T) {
	f, _ := NewFunds("FEE", decimal.NewFromInt(1))
	if f.CreateProof().Resource() != "FEE" {
		t.Errorf("Expected proof of FEE, got %q", f.CreateProof().Resource())
	}

	empty := EmptyFunds("FEE")
	if empty.CreateProof().Resource() != "" {
		t.Error("Empty bucket should not prove possession")
	}
}

func TestAssetVault(t *testing.T) {
	v := NewAssetVault("nft")

	if err := v.Put(NewAsset("nft", "#1#")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	t.Run("ids sorted", func(t *testing.T) {
		if err := v.Put(NewAsset("nft", "#0#")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		ids := v.IDs()
		if len(ids) != 2 || ids[0] != "#0#" || ids[1] != "#1#" {
			t.Errorf("Expected [#0# #1#], got %v", ids)
		}
		if _, err := v.Take("#0#"); err != nil {
			t.Fatalf("Take failed: %v", err)
		}
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		if err := v.Put(NewAsset("nft", "#1#")); !errors.Is(err, domain.ErrDuplicateAsset) {
			t.Errorf("Expected ErrDuplicateAsset, got %v", err)
		}
	})

	t.Run("wrong resource rejected", func(t *testing.T) {
		if err := v.Put(NewAsset("other", "#2#")); !errors.Is(err, domain.ErrWrongAssetType) {
			t.Errorf("Expected ErrWrongAssetType, got %v", err)
		}
	})

	t.Run("take returns the asset", func(t *testing.T) {
		a, err := v.Take("#1#")
		if err != nil {
			t.Fatalf("Take failed: %v", err)
		}
		if a.ID() != "#1#" || a.Resource() != "nft" {
			t.Errorf("Unexpected asset %s", a)
		}
		if v.Contains("#1#") {
			t.Error("Asset should have left the vault")
		}
	})

	t.Run("take missing id", func(t *testing.T) {
		if _, err := v.Take("#9#"); !errors.Is(err, domain.ErrAssetNotFound) {
			t.Errorf("Expected ErrAssetNotFound, got %v", err)
		}
	})
}

func TestCurrencyVault(t *testing.T) {
	v := NewCurrencyVault("XRD")

	f, _ := NewFunds("XRD", decimal.RequireFromString("12.5"))
	if err := v.Put(f); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !f.Amount().IsZero() {
		t.Error("Deposited bucket should be empty")
	}

	other, _ := NewFunds("USD", decimal.NewFromInt(1))
	if err := v.Put(other); !errors.Is(err, domain.ErrWrongAssetType) {
		t.Errorf("Expected ErrWrongAssetType, got %v", err)
	}

	if _, err := v.Take(decimal.NewFromInt(13)); !errors.Is(err, ErrUnderflow) {
		t.Errorf("Expected ErrUnderflow, got %v", err)
	}

	out, err := v.Take(decimal.RequireFromString("2.5"))
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if !out.Amount().Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected 2.5, got %s", out.Amount())
	}

	all := v.TakeAll()
	if !all.Amount().Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected 10, got %s", all.Amount())
	}

	again := v.TakeAll()
	if !again.Amount().IsZero() {
		t.Errorf("Draining an empty vault should yield zero, got %s", again.Amount())
	}
	if err := v.VerifyInvariant(); err != nil {
		t.Errorf("VerifyInvariant failed: %v", err)
	}
}
