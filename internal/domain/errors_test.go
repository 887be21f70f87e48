package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestOpError(t *testing.T) {
	t.Run("wraps taxonomy error", func(t *testing.T) {
		err := NewOpError("sell", ErrInvalidPrice)

		if err.Error() != "market sell: invalid price" {
			t.Errorf("Error message = %q, want %q", err.Error(), "market sell: invalid price")
		}

		if !errors.Is(err, ErrInvalidPrice) {
			t.Error("Expected error to wrap ErrInvalidPrice")
		}
	})

	t.Run("keeps detail through fmt wrapping", func(t *testing.T) {
		err := NewOpError("buy", fmt.Errorf("%w: need 5, got 3", ErrInsufficientPayment))

		if !errors.Is(err, ErrInsufficientPayment) {
			t.Error("Expected error to wrap ErrInsufficientPayment")
		}
		if OpOf(err) != "buy" {
			t.Errorf("OpOf = %q, want %q", OpOf(err), "buy")
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if NewOpError("cancel", nil) != nil {
			t.Error("Expected nil for nil error")
		}
	})

	t.Run("OpOf on plain error", func(t *testing.T) {
		if OpOf(errors.New("plain")) != "" {
			t.Error("Expected empty op for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "market.fee_rate", Err: baseErr}

	expected := "config error [market.fee_rate]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, baseErr) {
		t.Error("Expected ConfigError to unwrap to base error")
	}
}
