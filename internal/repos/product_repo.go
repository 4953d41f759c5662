package repos

import (
	"github.com/jmoiron/sqlx"

	"tradeup/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, seller_id, device_model_id, title, description,
    estimated_price, selling_price, status, quality_grade, condition_json,
    view_count, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Create(p *domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products
	    (id, seller_id, device_model_id, title, description,
	     estimated_price, selling_price, status, quality_grade, condition_json)
	  VALUES (?,?,?,?,?,?,?,?,?,?)
	`, p.ID, p.SellerID, p.DeviceModelID, p.Title, p.Description,
		p.EstimatedPrice, p.SellingPrice, p.Status, p.QualityGrade, p.ConditionJSON)
	return err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// GetTx reads a product inside a transaction. The trade orchestrator
// calls it under the per-product lock before any status write.
func (r *ProductRepo) GetTx(tx *sqlx.Tx, id string) (domain.Product, error) {
	var p domain.Product
	err := tx.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// ListOnSale returns the market feed; sellerID narrows to one seller's
// live listings when non-empty.
func (r *ProductRepo) ListOnSale(sellerID string, limit, offset int) ([]domain.Product, error) {
	q := `SELECT ` + productCols + ` FROM products WHERE status = 'on_sale'`
	args := []any{}
	if sellerID != "" {
		q += ` AND seller_id = ?`
		args = append(args, sellerID)
	}
	q += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, q, args...)
	return out, err
}

func (r *ProductRepo) ListBySeller(sellerID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE seller_id = ?
	  ORDER BY created_at DESC
	`, sellerID)
	return out, err
}

func (r *ProductRepo) SetStatusTx(tx *sqlx.Tx, id, status string) error {
	_, err := tx.Exec(`UPDATE products SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, status, id)
	return err
}

// SetStatusIf flips status only when the current value matches; the
// guarded UPDATE makes check-and-set atomic for unlocked callers like
// delisting.
func (r *ProductRepo) SetStatusIf(id, from, to string) (bool, error) {
	res, err := r.db.Exec(`
	  UPDATE products SET status=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=? AND status=?
	`, to, id, from)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ProductRepo) BumpViewCount(id string) error {
	_, err := r.db.Exec(`UPDATE products SET view_count=view_count+1 WHERE id=?`, id)
	return err
}
