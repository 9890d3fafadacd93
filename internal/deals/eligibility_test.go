package deals

import (
	"testing"
	"time"

	"github.com/serialguard/serialguard-backend/pkg/enums"
	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
)

const cooldownDays = 3

func plainSeller() SellerProfile {
	return SellerProfile{Role: enums.UserRoleUser}
}

func TestDaysSinceTruncatesPartialDays(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		held time.Duration
		want int
	}{
		{0, 0},
		{23 * time.Hour, 0},
		{24 * time.Hour, 1},
		{71 * time.Hour, 2},
		{72 * time.Hour, 3},
		{73 * time.Hour, 3},
	}
	for _, tc := range cases {
		if got := DaysSince(now.Add(-tc.held), now); got != tc.want {
			t.Errorf("DaysSince(held %v) = %d, want %d", tc.held, got, tc.want)
		}
	}
}

func TestCheckSellableCooldownBoundary(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	// 71 hours is two whole days: still inside the cooldown.
	check := SellabilityCheck{
		SerialNumber: "SN-1",
		Status:       enums.ProductStatusForSale,
		Seller:       plainSeller(),
		RegisteredAt: now.Add(-71 * time.Hour),
	}
	err := CheckSellable(check, now, cooldownDays)
	if err == nil {
		t.Fatal("71h-held product should not be sellable")
	}
	if err.Code() != pkgerrors.CodeNotEligible {
		t.Fatalf("code = %s", err.Code())
	}
	details := err.Details().(map[string]any)
	if details["held_days"] != 2 || details["required_days"] != cooldownDays {
		t.Fatalf("details = %v", details)
	}

	// 72 hours crosses the three-day threshold.
	check.RegisteredAt = now.Add(-72 * time.Hour)
	if err := CheckSellable(check, now, cooldownDays); err != nil {
		t.Fatalf("72h-held product rejected: %v", err)
	}
}

func TestCheckSellableRejectsNonForSale(t *testing.T) {
	now := time.Now().UTC()
	for _, status := range []enums.ProductStatus{enums.ProductStatusLocked, enums.ProductStatusStolen} {
		check := SellabilityCheck{
			SerialNumber: "SN-1",
			Status:       status,
			Seller:       SellerProfile{Role: enums.UserRoleAdmin},
			RegisteredAt: now.AddDate(-1, 0, 0),
		}
		err := CheckSellable(check, now, cooldownDays)
		if err == nil {
			t.Fatalf("%s product should not be sellable", status)
		}
		if err.Code() != pkgerrors.CodeNotEligible {
			t.Fatalf("code = %s", err.Code())
		}
	}
}

func TestCheckSellablePrivilegedSellersSkipCooldown(t *testing.T) {
	now := time.Now().UTC()
	justRegistered := now.Add(-time.Hour)

	cases := []struct {
		name   string
		seller SellerProfile
		want   bool
	}{
		{"admin", SellerProfile{Role: enums.UserRoleAdmin}, true},
		{"shopkeeper", SellerProfile{Role: enums.UserRoleShopkeeper}, true},
		{"plain user", SellerProfile{Role: enums.UserRoleUser}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			check := SellabilityCheck{
				SerialNumber: "SN-1",
				Status:       enums.ProductStatusForSale,
				Seller:       tc.seller,
				RegisteredAt: justRegistered,
			}
			err := CheckSellable(check, now, cooldownDays)
			if tc.want && err != nil {
				t.Fatalf("expected sellable, got %v", err)
			}
			if !tc.want && err == nil {
				t.Fatal("expected cooldown rejection")
			}
		})
	}
}
