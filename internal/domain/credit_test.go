package domain_test

import (
	"testing"

	"tradeup/internal/domain"
)

func TestParseCreditEventType(t *testing.T) {
	cases := map[string]domain.CreditEventType{
		"order_completed":   domain.EventOrderCompleted,
		"completed":         domain.EventOrderCompleted,
		"Order_Complete":    domain.EventOrderCompleted,
		"cancel":            domain.EventPaymentCancelled,
		"payment_cancelled": domain.EventPaymentCancelled,
		" refund ":          domain.EventOrderRefunded,
		"refunded":          domain.EventOrderRefunded,
		"MANUAL":            domain.EventManualAdjust,
	}
	for in, want := range cases {
		got, err := domain.ParseCreditEventType(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: got %q, want %q", in, got, want)
		}
	}

	for _, bad := range []string{"", "bonus", "order completed"} {
		if _, err := domain.ParseCreditEventType(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestParseParty(t *testing.T) {
	for in, want := range map[string]domain.Party{
		"buyer": domain.PartyBuyer, "b": domain.PartyBuyer,
		"Seller": domain.PartySeller, "S": domain.PartySeller,
		"": domain.PartyNone,
	} {
		got, err := domain.ParseParty(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: got %v, want %v", in, got, want)
		}
	}
	if _, err := domain.ParseParty("middleman"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCreditLevels(t *testing.T) {
	cases := []struct {
		score    int
		level    string
		canTrade bool
	}{
		{0, "poor (cannot trade)", false},
		{59, "poor (cannot trade)", false},
		{60, "below average", true},
		{80, "below average", true},
		{81, "average", true},
		{100, "average", true},
		{101, "excellent", true},
		{120, "excellent", true},
	}
	for _, tc := range cases {
		if got := domain.CreditLevel(tc.score); got != tc.level {
			t.Fatalf("level(%d) = %q, want %q", tc.score, got, tc.level)
		}
		if got := domain.CanTrade(tc.score); got != tc.canTrade {
			t.Fatalf("canTrade(%d) = %v", tc.score, got)
		}
	}
}

func TestOrderStatusLabels(t *testing.T) {
	if !domain.OrderCompleted.Terminal() || !domain.OrderRefunded.Terminal() {
		t.Fatal("completed and refunded are terminal")
	}
	if domain.OrderShipped.Terminal() {
		t.Fatal("shipped is not terminal")
	}

	if got := domain.OrderPendingShipment.Label(domain.AsBuyer); got != "paid, waiting for seller to ship" {
		t.Fatalf("buyer label = %q", got)
	}
	if got := domain.OrderPendingShipment.Label(domain.AsSeller); got != "paid, ship the item" {
		t.Fatalf("seller label = %q", got)
	}
	// Unknown states fall back to the raw value.
	if got := domain.OrderStatus("weird").Label(domain.AsBuyer); got != "weird" {
		t.Fatalf("fallback label = %q", got)
	}
}
