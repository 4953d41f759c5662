package services

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tradeup/internal/apperr"
	"tradeup/internal/domain"
	"tradeup/internal/metrics"
	"tradeup/internal/repos"
)

// TradeService coordinates product locking and order creation as one
// atomic unit spanning both entities.
type TradeService struct {
	DB       *sqlx.DB
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
	Users    *repos.UserRepo
	Flow     *OrderService

	locks *keyedMutex
}

func NewTradeService(db *sqlx.DB, products *repos.ProductRepo, orders *repos.OrderRepo, users *repos.UserRepo, flow *OrderService) *TradeService {
	return &TradeService{DB: db, Products: products, Orders: orders, Users: users, Flow: flow, locks: newKeyedMutex()}
}

func newOrderNo() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateOrder locks the product, verifies it is purchasable, and
// creates a pending_payment order for the buyer. Of two concurrent
// calls on the same product exactly one succeeds; the loser sees the
// status already flipped to locked. The credit gate runs before any
// lock is taken.
func (s *TradeService) CreateOrder(buyerID, productID, message string) (domain.Order, error) {
	buyer, err := s.Users.ByID(buyerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, apperr.NotFound("user")
		}
		return domain.Order{}, err
	}
	if !domain.CanTrade(buyer.CreditScore) {
		return domain.Order{}, apperr.PermissionDenied("credit score below trading threshold")
	}

	unlock := s.locks.Lock("product:" + productID)
	defer unlock()

	tx, err := s.DB.Beginx()
	if err != nil {
		return domain.Order{}, err
	}
	defer func() { _ = tx.Rollback() }()

	p, err := s.Products.GetTx(tx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, apperr.NotFound("product")
		}
		return domain.Order{}, err
	}
	if p.Status != domain.ProductOnSale {
		return domain.Order{}, apperr.InvalidState("not purchasable")
	}
	if p.SellerID == buyerID {
		return domain.Order{}, apperr.InvalidArgumentf("cannot buy own listing")
	}

	if err := s.Products.SetStatusTx(tx, p.ID, domain.ProductLocked); err != nil {
		return domain.Order{}, err
	}

	o := domain.Order{
		ID:           uuid.NewString(),
		OrderNo:      newOrderNo(),
		BuyerID:      buyerID,
		ProductID:    p.ID,
		Amount:       p.SellingPrice,
		Status:       domain.OrderPendingPayment,
		BuyerMessage: strings.TrimSpace(message),
	}
	if err := s.Orders.CreateTx(tx, &o); err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, err
	}
	metrics.OrdersCreated.Inc()
	return o, nil
}

// CompleteOrder is the legacy single-call settlement kept for callers
// that predate the explicit state machine. It has the same
// precondition (buyer, shipped) and now routes through the canonical
// confirm-receipt transition, so credit lands through the idempotent
// ledger instead of the old unguarded bonus.
func (s *TradeService) CompleteOrder(orderID, buyerID string) (TransitionResult, error) {
	return s.Flow.Apply(ActionConfirmReceipt, orderID, buyerID)
}
