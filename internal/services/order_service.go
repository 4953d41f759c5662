package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tradeup/internal/apperr"
	"tradeup/internal/domain"
	applog "tradeup/internal/log"
	"tradeup/internal/metrics"
	"tradeup/internal/repos"
)

// OrderAction names a transition request on the order state machine.
type OrderAction string

const (
	ActionPay            OrderAction = "pay"
	ActionCancelPayment  OrderAction = "cancel_payment"
	ActionShip           OrderAction = "ship"
	ActionConfirmReceipt OrderAction = "confirm_receipt"
	ActionRefund         OrderAction = "refund"
)

type transition struct {
	actor domain.Party
	from  domain.OrderStatus
	to    domain.OrderStatus
}

var transitions = map[OrderAction]transition{
	ActionPay:            {domain.PartyBuyer, domain.OrderPendingPayment, domain.OrderPendingShipment},
	ActionCancelPayment:  {domain.PartyBuyer, domain.OrderPendingPayment, domain.OrderRefunded},
	ActionShip:           {domain.PartySeller, domain.OrderPendingShipment, domain.OrderShipped},
	ActionConfirmReceipt: {domain.PartyBuyer, domain.OrderShipped, domain.OrderCompleted},
	ActionRefund:         {domain.PartyBuyer, domain.OrderShipped, domain.OrderRefunded},
}

// TransitionResult reports the authoritative outcome plus any
// swallowed side-effect failures. Warnings never imply a rollback.
type TransitionResult struct {
	Order    domain.Order `json:"order"`
	NoOp     bool         `json:"no_op,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// OrderService drives order status transitions and their credit side
// effects. Product status follows the order on terminal transitions.
type OrderService struct {
	DB       *sqlx.DB
	Orders   *repos.OrderRepo
	Products *repos.ProductRepo
	Users    *repos.UserRepo
	Credit   *CreditService

	locks *keyedMutex
}

func NewOrderService(db *sqlx.DB, orders *repos.OrderRepo, products *repos.ProductRepo, users *repos.UserRepo, credit *CreditService) *OrderService {
	return &OrderService{DB: db, Orders: orders, Products: products, Users: users, Credit: credit, locks: newKeyedMutex()}
}

// Apply runs one action against an order on behalf of actorID.
// Authorization is checked before state: a wrong actor gets
// PermissionDenied even when the state would also be illegal.
// cancel_payment and refund on an already-terminal order succeed as
// no-ops; every other out-of-place action is InvalidState.
func (s *OrderService) Apply(action OrderAction, orderID, actorID string) (TransitionResult, error) {
	t, ok := transitions[action]
	if !ok {
		return TransitionResult{}, apperr.InvalidArgumentf("unknown order action: %q", action)
	}

	unlock := s.locks.Lock("order:" + orderID)
	defer unlock()

	tx, err := s.DB.Beginx()
	if err != nil {
		return TransitionResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	o, err := s.Orders.GetTx(tx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransitionResult{}, apperr.NotFound("order")
		}
		return TransitionResult{}, err
	}
	p, err := s.Products.GetTx(tx, o.ProductID)
	if err != nil {
		return TransitionResult{}, err
	}

	switch t.actor {
	case domain.PartyBuyer:
		if actorID != o.BuyerID {
			return TransitionResult{}, apperr.PermissionDenied("only the buyer may " + string(action))
		}
	case domain.PartySeller:
		if actorID != p.SellerID {
			return TransitionResult{}, apperr.PermissionDenied("only the seller may " + string(action))
		}
	}

	if o.Status != t.from {
		// Cancelling or refunding something already settled is a no-op,
		// not an error, so retries of those endpoints converge.
		if o.Status.Terminal() && (action == ActionCancelPayment || action == ActionRefund) {
			return TransitionResult{Order: o, NoOp: true}, nil
		}
		return TransitionResult{}, apperr.InvalidState(
			fmt.Sprintf("cannot %s an order in state %s", action, o.Status))
	}

	if err := s.Orders.SetStatusTx(tx, o.ID, t.to); err != nil {
		return TransitionResult{}, err
	}

	// Product follows terminal transitions: sold on completion,
	// released back to the market on refund.
	switch t.to {
	case domain.OrderCompleted:
		if err := s.Products.SetStatusTx(tx, p.ID, domain.ProductSold); err != nil {
			return TransitionResult{}, err
		}
		// Funds release and trade counters commit with the transition.
		if err := s.Users.AddBalanceTx(tx, p.SellerID, o.Amount); err != nil {
			return TransitionResult{}, err
		}
		if err := s.Users.IncrementTradeCountTx(tx, o.BuyerID); err != nil {
			return TransitionResult{}, err
		}
		if err := s.Users.IncrementTradeCountTx(tx, p.SellerID); err != nil {
			return TransitionResult{}, err
		}
	case domain.OrderRefunded:
		if err := s.Products.SetStatusTx(tx, p.ID, domain.ProductOnSale); err != nil {
			return TransitionResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return TransitionResult{}, err
	}
	metrics.OrderTransitions.WithLabelValues(string(action)).Inc()

	res := TransitionResult{}
	res.Warnings = s.applyCreditEffects(action, o, p)

	updated, err := s.Orders.Get(o.ID)
	if err != nil {
		// The transition committed; fall back to the stale row with
		// the new status rather than failing the call.
		o.Status = t.to
		updated = o
	}
	res.Order = updated
	return res, nil
}

// applyCreditEffects runs after the transition commits. Ledger
// failures are captured as warnings: credit application must never
// block trade settlement.
func (s *OrderService) applyCreditEffects(action OrderAction, o domain.Order, p domain.Product) []string {
	type effect struct {
		userID string
		cmd    CreditCommand
	}
	var effects []effect

	switch action {
	case ActionCancelPayment:
		effects = append(effects, effect{o.BuyerID, CreditCommand{
			UserID: o.BuyerID, EventType: domain.EventPaymentCancelled,
			RefType: "order", RefID: o.ID, Reason: "payment cancelled by buyer",
		}})
	case ActionConfirmReceipt:
		effects = append(effects,
			effect{o.BuyerID, CreditCommand{
				UserID: o.BuyerID, EventType: domain.EventOrderCompleted,
				RefType: "order", RefID: o.ID, Reason: "order completed",
			}},
			effect{p.SellerID, CreditCommand{
				UserID: p.SellerID, EventType: domain.EventOrderCompleted,
				RefType: "order", RefID: o.ID, Reason: "order completed",
			}},
		)
	case ActionRefund:
		effects = append(effects,
			effect{o.BuyerID, CreditCommand{
				UserID: o.BuyerID, EventType: domain.EventOrderRefunded, Party: domain.PartyBuyer,
				RefType: "order", RefID: o.ID, Reason: "order refunded",
			}},
			effect{p.SellerID, CreditCommand{
				UserID: p.SellerID, EventType: domain.EventOrderRefunded, Party: domain.PartySeller,
				RefType: "order", RefID: o.ID, Reason: "order refunded",
			}},
		)
	}

	var warnings []string
	for _, e := range effects {
		if _, err := s.Credit.Apply(e.cmd); err != nil {
			metrics.CreditLedgerFailures.Inc()
			soft := apperr.Wrap(apperr.CodeCreditLedger, "credit side effect failed", err)
			applog.Event("credit.side_effect.fail", soft, map[string]any{
				"order_id": o.ID, "user_id": e.userID, "action": string(action),
			})
			warnings = append(warnings, fmt.Sprintf("credit not applied for user %s: %v", e.userID, err))
		}
	}
	return warnings
}

// Get returns an order if the caller is its buyer, the product's
// seller, or an admin. The id may be either the internal id or the
// customer-facing order number.
func (s *OrderService) Get(orderID string, viewer *domain.User) (domain.Order, domain.Perspective, error) {
	o, err := s.Orders.Get(orderID)
	if errors.Is(err, sql.ErrNoRows) {
		o, err = s.Orders.GetByNo(orderID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.AsBuyer, apperr.NotFound("order")
		}
		return domain.Order{}, domain.AsBuyer, err
	}
	p, err := s.Products.Get(o.ProductID)
	if err != nil {
		return domain.Order{}, domain.AsBuyer, err
	}
	switch {
	case viewer != nil && viewer.ID == o.BuyerID:
		return o, domain.AsBuyer, nil
	case viewer != nil && viewer.ID == p.SellerID:
		return o, domain.AsSeller, nil
	case viewer != nil && viewer.IsAdmin():
		return o, domain.AsBuyer, nil
	default:
		return domain.Order{}, domain.AsBuyer, apperr.NotFound("order")
	}
}
