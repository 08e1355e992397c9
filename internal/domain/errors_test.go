package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/waabox/shopdeck/internal/domain"
)

func TestErrUnauthorized_CanBeDetectedWithErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("storefront API error: %w", domain.ErrUnauthorized)
	if !errors.Is(wrapped, domain.ErrUnauthorized) {
		t.Error("expected errors.Is to detect ErrUnauthorized in wrapped error")
	}
}

func TestSentinels_AreDistinct(t *testing.T) {
	sentinels := []error{domain.ErrUnauthorized, domain.ErrSessionExpired, domain.ErrTimeout, domain.ErrNetwork}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("expected %v and %v to be distinct", a, b)
			}
		}
	}
}
