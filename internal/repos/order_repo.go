package repos

import (
	"github.com/jmoiron/sqlx"

	"tradeup/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `
    id, order_no, buyer_id, product_id, amount, status,
    pay_time, ship_time, complete_time, cancel_time, buyer_message,
    created_at, COALESCE(updated_at,'') AS updated_at`

// timestampCol maps a target status to the time column stamped when
// the order enters it.
var timestampCol = map[domain.OrderStatus]string{
	domain.OrderPendingShipment: "pay_time",
	domain.OrderShipped:         "ship_time",
	domain.OrderCompleted:       "complete_time",
	domain.OrderRefunded:        "cancel_time",
}

func (r *OrderRepo) CreateTx(tx *sqlx.Tx, o *domain.Order) error {
	_, err := tx.Exec(`
	  INSERT INTO orders(id, order_no, buyer_id, product_id, amount, status, buyer_message)
	  VALUES (?,?,?,?,?,?,?)
	`, o.ID, o.OrderNo, o.BuyerID, o.ProductID, o.Amount, o.Status, o.BuyerMessage)
	return err
}

func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	return o, err
}

func (r *OrderRepo) GetTx(tx *sqlx.Tx, id string) (domain.Order, error) {
	var o domain.Order
	err := tx.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	return o, err
}

func (r *OrderRepo) GetByNo(orderNo string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE order_no = ?`, orderNo)
	return o, err
}

// SetStatusTx moves an order to status and stamps the matching time
// column. Callers hold the per-order lock and have already validated
// the transition.
func (r *OrderRepo) SetStatusTx(tx *sqlx.Tx, id string, status domain.OrderStatus) error {
	q := `UPDATE orders SET status=?, updated_at=CURRENT_TIMESTAMP`
	if col, ok := timestampCol[status]; ok {
		q += `, ` + col + `=CURRENT_TIMESTAMP`
	}
	q += ` WHERE id=?`
	_, err := tx.Exec(q, status, id)
	return err
}

func (r *OrderRepo) ListByBuyer(buyerID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  WHERE buyer_id = ?
	  ORDER BY datetime(created_at) DESC
	`, buyerID)
	return out, err
}

// ListBySeller resolves orders through product ownership.
func (r *OrderRepo) ListBySeller(sellerID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT o.id, o.order_no, o.buyer_id, o.product_id, o.amount, o.status,
	    o.pay_time, o.ship_time, o.complete_time, o.cancel_time, o.buyer_message,
	    o.created_at, COALESCE(o.updated_at,'') AS updated_at
	  FROM orders o
	  JOIN products p ON p.id = o.product_id
	  WHERE p.seller_id = ?
	  ORDER BY datetime(o.created_at) DESC
	`, sellerID)
	return out, err
}
