package domain

import (
	"strings"

	"tradeup/internal/apperr"
)

// MaxCreditScore caps the aggregate; the floor is 0.
const MaxCreditScore = 120

// TradeThreshold gates listing and purchase creation.
const TradeThreshold = 60

// CreditEventType is the closed set of ledger event types. Aliases are
// parsed at the boundary; raw strings never travel further in.
type CreditEventType string

const (
	EventOrderCompleted   CreditEventType = "order_completed"
	EventPaymentCancelled CreditEventType = "payment_cancelled"
	EventOrderRefunded    CreditEventType = "order_refunded"
	EventManualAdjust     CreditEventType = "manual_adjust"
)

var eventAliases = map[string]CreditEventType{
	"completed":         EventOrderCompleted,
	"order_complete":    EventOrderCompleted,
	"order_completed":   EventOrderCompleted,
	"cancel":            EventPaymentCancelled,
	"cancel_payment":    EventPaymentCancelled,
	"payment_cancelled": EventPaymentCancelled,
	"refund":            EventOrderRefunded,
	"refunded":          EventOrderRefunded,
	"order_refunded":    EventOrderRefunded,
	"manual":            EventManualAdjust,
	"manual_adjust":     EventManualAdjust,
}

// ParseCreditEventType resolves an event-type string or alias to its
// canonical type.
func ParseCreditEventType(s string) (CreditEventType, error) {
	et, ok := eventAliases[strings.TrimSpace(strings.ToLower(s))]
	if !ok {
		return "", apperr.InvalidArgumentf("unsupported event type: %q", s)
	}
	return et, nil
}

// Party identifies which side of a trade an event applies to.
type Party int

const (
	PartyNone Party = iota
	PartyBuyer
	PartySeller
)

func (p Party) String() string {
	switch p {
	case PartyBuyer:
		return "buyer"
	case PartySeller:
		return "seller"
	default:
		return ""
	}
}

// ParseParty accepts "buyer"/"seller" and their single-letter aliases;
// the empty string is PartyNone. Anything else is rejected.
func ParseParty(s string) (Party, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "":
		return PartyNone, nil
	case "buyer", "b":
		return PartyBuyer, nil
	case "seller", "s":
		return PartySeller, nil
	default:
		return PartyNone, apperr.InvalidArgumentf("party must be buyer or seller, got %q", s)
	}
}

// CreditEvent is an append-only fact. (user_id, event_type, ref_type,
// ref_id) is the idempotency key; rows are never updated or deleted.
type CreditEvent struct {
	ID         int64           `db:"id"`
	UserID     string          `db:"user_id"`
	EventType  CreditEventType `db:"event_type"`
	RefType    string          `db:"ref_type"`
	RefID      string          `db:"ref_id"`
	Delta      int             `db:"delta"`
	ScoreAfter int             `db:"score_after"`
	Reason     string          `db:"reason"`
	CreatedAt  string          `db:"created_at"`
}

// CreditLevel buckets a score for display.
func CreditLevel(score int) string {
	switch {
	case score < 60:
		return "poor (cannot trade)"
	case score <= 80:
		return "below average"
	case score <= 100:
		return "average"
	default:
		return "excellent"
	}
}

func CanTrade(score int) bool { return score >= TradeThreshold }
