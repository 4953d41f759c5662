package domain

// OrderStatus is the order state machine's state. completed and
// refunded are terminal.
type OrderStatus string

const (
	OrderPendingPayment  OrderStatus = "pending_payment"
	OrderPendingShipment OrderStatus = "pending_shipment"
	OrderShipped         OrderStatus = "shipped"
	OrderCompleted       OrderStatus = "completed"
	OrderRefunded        OrderStatus = "refunded"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderRefunded
}

// Perspective selects which party is viewing an order; buyer and
// seller see different labels for the same canonical state.
type Perspective int

const (
	AsBuyer Perspective = iota
	AsSeller
)

var buyerLabels = map[OrderStatus]string{
	OrderPendingPayment:  "awaiting your payment",
	OrderPendingShipment: "paid, waiting for seller to ship",
	OrderShipped:         "shipped, confirm on arrival",
	OrderCompleted:       "completed",
	OrderRefunded:        "refunded",
}

var sellerLabels = map[OrderStatus]string{
	OrderPendingPayment:  "awaiting buyer payment",
	OrderPendingShipment: "paid, ship the item",
	OrderShipped:         "shipped, awaiting buyer confirmation",
	OrderCompleted:       "completed",
	OrderRefunded:        "refunded",
}

// Label returns the human-readable status for the given viewing party.
func (s OrderStatus) Label(p Perspective) string {
	var l string
	if p == AsSeller {
		l = sellerLabels[s]
	} else {
		l = buyerLabels[s]
	}
	if l == "" {
		return string(s)
	}
	return l
}
