package services_test

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeup/internal/apperr"
	"tradeup/internal/domain"
	"tradeup/internal/repos"
	"tradeup/internal/services"
)

// tradeEnv is one market: buyer and seller in good standing, one
// phone on sale for 100.
func tradeEnv(t *testing.T) (*services.TradeService, func(string, int) *services.TradeService) {
	t.Helper()
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "seller", 100)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	svc := tradeService(db)
	addUser := func(id string, score int) *services.TradeService {
		seedUser(t, db, id, score)
		return svc
	}
	return svc, addUser
}

func TestCreateOrder(t *testing.T) {
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "seller", 100)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	svc := tradeService(db)

	o, err := svc.CreateOrder("buyer", "p1", "is the battery original?")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPendingPayment, o.Status)
	assert.Equal(t, "buyer", o.BuyerID)
	assert.True(t, o.Amount.Equal(decimal.NewFromInt(100)))
	assert.Len(t, o.OrderNo, 32)
	assert.Equal(t, domain.ProductLocked, productStatus(t, db, "p1"))

	// Locked product cannot be bought again.
	seedUser(t, db, "buyer2", 100)
	_, err = svc.CreateOrder("buyer2", "p1", "")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
}

func TestCreateOrder_CreditGate(t *testing.T) {
	_, addUser := tradeEnv(t)
	svc := addUser("deadbeat", 55)

	_, err := svc.CreateOrder("deadbeat", "p1", "")
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))
}

func TestCreateOrder_OwnListing(t *testing.T) {
	svc, _ := tradeEnv(t)
	_, err := svc.CreateOrder("seller", "p1", "")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	svc, _ := tradeEnv(t)
	_, err := svc.CreateOrder("buyer", "ghost", "")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestCreateOrder_ConcurrentSingleWinner(t *testing.T) {
	_, addUser := tradeEnv(t)
	svc := addUser("buyer2", 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, buyer := range []string{"buyer", "buyer2"} {
		wg.Add(1)
		go func(i int, buyer string) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder(buyer, "p1", "")
		}(i, buyer)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else if apperr.Is(err, apperr.CodeInvalidState) {
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
}

func TestOrderFlow_Settlement(t *testing.T) {
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "seller", 100)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	trade := tradeService(db)
	flow := orderService(db)

	o, err := trade.CreateOrder("buyer", "p1", "")
	require.NoError(t, err)

	res, err := flow.Apply(services.ActionPay, o.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPendingShipment, res.Order.Status)

	res, err = flow.Apply(services.ActionShip, o.ID, "seller")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderShipped, res.Order.Status)

	res, err = flow.Apply(services.ActionConfirmReceipt, o.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, res.Order.Status)
	assert.Empty(t, res.Warnings)
	assert.NotEmpty(t, res.Order.CompleteTime)

	assert.Equal(t, domain.ProductSold, productStatus(t, db, "p1"))

	// Funds released, both counters bumped, both sides +3.
	var balance decimal.Decimal
	require.NoError(t, db.Get(&balance, `SELECT balance FROM users WHERE id='seller'`))
	assert.True(t, balance.Equal(decimal.NewFromInt(10100)), "balance = %s", balance)

	var tc int
	require.NoError(t, db.Get(&tc, `SELECT trade_count FROM users WHERE id='buyer'`))
	assert.Equal(t, 1, tc)
	require.NoError(t, db.Get(&tc, `SELECT trade_count FROM users WHERE id='seller'`))
	assert.Equal(t, 1, tc)

	assert.Equal(t, 103, userScore(t, db, "buyer"))
	assert.Equal(t, 103, userScore(t, db, "seller"))

	// Replayed confirmation after settlement is rejected, and the
	// credit it already granted stays granted once.
	_, err = flow.Apply(services.ActionConfirmReceipt, o.ID, "buyer")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	assert.Equal(t, 103, userScore(t, db, "buyer"))
}

func TestOrderFlow_Refund(t *testing.T) {
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "seller", 100)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	trade := tradeService(db)
	flow := orderService(db)

	o, err := trade.CreateOrder("buyer", "p1", "")
	require.NoError(t, err)
	_, err = flow.Apply(services.ActionPay, o.ID, "buyer")
	require.NoError(t, err)
	_, err = flow.Apply(services.ActionShip, o.ID, "seller")
	require.NoError(t, err)

	res, err := flow.Apply(services.ActionRefund, o.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRefunded, res.Order.Status)
	assert.NotEmpty(t, res.Order.CancelTime)

	// Product returns to the market; buyer -3, seller -1.
	assert.Equal(t, domain.ProductOnSale, productStatus(t, db, "p1"))
	assert.Equal(t, 97, userScore(t, db, "buyer"))
	assert.Equal(t, 99, userScore(t, db, "seller"))

	// Refund retry converges as a no-op.
	res, err = flow.Apply(services.ActionRefund, o.ID, "buyer")
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, 97, userScore(t, db, "buyer"))
}

func TestOrderFlow_CancelPayment(t *testing.T) {
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "seller", 100)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	trade := tradeService(db)
	flow := orderService(db)

	o, err := trade.CreateOrder("buyer", "p1", "")
	require.NoError(t, err)

	res, err := flow.Apply(services.ActionCancelPayment, o.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRefunded, res.Order.Status)
	assert.Equal(t, domain.ProductOnSale, productStatus(t, db, "p1"))
	assert.Equal(t, 97, userScore(t, db, "buyer"))

	// Cancel retry is a no-op, not a second -3.
	res, err = flow.Apply(services.ActionCancelPayment, o.ID, "buyer")
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, 97, userScore(t, db, "buyer"))
}

func TestCreateOrder_RebuyAfterRelease(t *testing.T) {
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "buyer2", 100)
	seedUser(t, db, "buyer3", 100)
	seedUser(t, db, "seller", 100)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	trade := tradeService(db)
	flow := orderService(db)

	// First buyer backs out before paying; the listing goes back on
	// sale and must be buyable again.
	o1, err := trade.CreateOrder("buyer", "p1", "")
	require.NoError(t, err)
	_, err = flow.Apply(services.ActionCancelPayment, o1.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductOnSale, productStatus(t, db, "p1"))

	o2, err := trade.CreateOrder("buyer2", "p1", "")
	require.NoError(t, err)
	assert.NotEqual(t, o1.ID, o2.ID)

	// Second buyer pays, receives, and refunds; the released listing
	// supports a third purchase with two refunded orders on record.
	_, err = flow.Apply(services.ActionPay, o2.ID, "buyer2")
	require.NoError(t, err)
	_, err = flow.Apply(services.ActionShip, o2.ID, "seller")
	require.NoError(t, err)
	_, err = flow.Apply(services.ActionRefund, o2.ID, "buyer2")
	require.NoError(t, err)

	o3, err := trade.CreateOrder("buyer3", "p1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPendingPayment, o3.Status)
	assert.Equal(t, domain.ProductLocked, productStatus(t, db, "p1"))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM orders WHERE product_id='p1'`))
	assert.Equal(t, 3, n)
}

func TestOrderApply_ActorBeforeState(t *testing.T) {
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "seller", 100)
	seedUser(t, db, "stranger", 100)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	trade := tradeService(db)
	flow := orderService(db)

	o, err := trade.CreateOrder("buyer", "p1", "")
	require.NoError(t, err)

	// Seller cannot pay, stranger cannot do anything.
	_, err = flow.Apply(services.ActionPay, o.ID, "seller")
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))
	_, err = flow.Apply(services.ActionPay, o.ID, "stranger")
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))

	// Buyer shipping is an authorization failure even though the
	// state would be wrong too.
	_, err = flow.Apply(services.ActionShip, o.ID, "buyer")
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))

	// Right actor, wrong state.
	_, err = flow.Apply(services.ActionShip, o.ID, "seller")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))
	_, err = flow.Apply(services.ActionConfirmReceipt, o.ID, "buyer")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))

	_, err = flow.Apply(services.OrderAction("teleport"), o.ID, "buyer")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	_, err = flow.Apply(services.ActionPay, "ghost", "buyer")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestCompleteOrder_RoutesThroughConfirmReceipt(t *testing.T) {
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "seller", 100)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	trade := tradeService(db)
	flow := orderService(db)

	o, err := trade.CreateOrder("buyer", "p1", "")
	require.NoError(t, err)

	// Not shipped yet: the legacy call carries the same precondition.
	_, err = trade.CompleteOrder(o.ID, "buyer")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidState))

	_, err = flow.Apply(services.ActionPay, o.ID, "buyer")
	require.NoError(t, err)
	_, err = flow.Apply(services.ActionShip, o.ID, "seller")
	require.NoError(t, err)

	res, err := trade.CompleteOrder(o.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, res.Order.Status)
	assert.Equal(t, 103, userScore(t, db, "buyer"))
}

func TestOrderGet_Visibility(t *testing.T) {
	db := memdb(t)
	seedUser(t, db, "buyer", 100)
	seedUser(t, db, "seller", 100)
	seedUser(t, db, "stranger", 100)
	db.MustExec(`INSERT INTO users(id,email,name,password_hash,role,credit_score,balance)
	  VALUES ('root','root@example.com','root','x','ADMIN',120,0)`)
	seedCatalog(t, db)
	seedProduct(t, db, "p1", "seller", domain.ProductOnSale, "100")
	trade := tradeService(db)
	flow := orderService(db)

	o, err := trade.CreateOrder("buyer", "p1", "")
	require.NoError(t, err)

	users := repos.NewUserRepo(db)
	get := func(id string) (domain.Perspective, error) {
		u, err := users.ByID(id)
		require.NoError(t, err)
		_, p, err := flow.Get(o.ID, u)
		return p, err
	}

	p, err := get("buyer")
	require.NoError(t, err)
	assert.Equal(t, domain.AsBuyer, p)

	p, err = get("seller")
	require.NoError(t, err)
	assert.Equal(t, domain.AsSeller, p)

	// The order number resolves too.
	var buyer *domain.User
	buyer, err = users.ByID("buyer")
	require.NoError(t, err)
	byNo, _, err := flow.Get(o.OrderNo, buyer)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNo.ID)

	_, err = get("root")
	require.NoError(t, err)

	// Strangers cannot even learn the order exists.
	_, err = get("stranger")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
