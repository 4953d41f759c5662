package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"tradeup/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,name,password_hash,role,credit_score,balance,trade_count,
  created_at,COALESCE(updated_at,'') AS updated_at`

var ErrEmailTaken = errors.New("email already registered")

// Create inserts the user, yielding to any existing row with the same
// email (case-insensitive). The conditional insert makes concurrent
// registrations race-safe without a prior read.
func (r *UserRepo) Create(u *domain.User) error {
	res, err := r.DB.Exec(`
	  INSERT INTO users(id,email,name,password_hash,role,credit_score,balance)
	  VALUES(?,?,?,?,?,?,?)
	  ON CONFLICT DO NOTHING
	`, u.ID, u.Email, u.Name, u.Hash, u.Role, u.CreditScore, u.Balance)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrEmailTaken
	}
	return nil
}

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByIDTx reads a user inside the caller's transaction; mutation paths
// use it under the service's per-user lock.
func (r *UserRepo) ByIDTx(tx *sqlx.Tx, id string) (*domain.User, error) {
	var u domain.User
	err := tx.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetCreditScoreTx is only called by the credit ledger; no other path
// may touch credit_score.
func (r *UserRepo) SetCreditScoreTx(tx *sqlx.Tx, id string, score int) error {
	_, err := tx.Exec(`UPDATE users SET credit_score=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, score, id)
	return err
}

// AddBalanceTx credits amount to a user's balance.
func (r *UserRepo) AddBalanceTx(tx *sqlx.Tx, id string, amount decimal.Decimal) error {
	_, err := tx.Exec(`UPDATE users SET balance=balance+?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, amount, id)
	return err
}

func (r *UserRepo) IncrementTradeCountTx(tx *sqlx.Tx, id string) error {
	_, err := tx.Exec(`UPDATE users SET trade_count=trade_count+1, updated_at=CURRENT_TIMESTAMP WHERE id=?`, id)
	return err
}

func (r *UserRepo) List(limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.User
	err := r.DB.Select(&out, `SELECT `+userCols+` FROM users ORDER BY created_at DESC LIMIT ?`, limit)
	return out, err
}

var ErrUserHasRecords = errors.New("user has live products or orders")

// Delete removes a user and their sessions. Users with products or
// orders are refused: listings and order history are kept intact
// rather than cascaded away.
func (r *UserRepo) Delete(userID string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.Get(&n, `
	  SELECT (SELECT COUNT(*) FROM products WHERE seller_id=?) +
	         (SELECT COUNT(*) FROM orders WHERE buyer_id=?)
	`, userID, userID); err != nil {
		return err
	}
	if n > 0 {
		return ErrUserHasRecords
	}

	if _, err := tx.Exec(`DELETE FROM sessions WHERE user_id=?`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM credit_events WHERE user_id=?`, userID); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM users WHERE id=?`, userID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

// ---------- Sessions ----------

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role,u.credit_score,u.balance,u.trade_count,
        u.created_at,COALESCE(u.updated_at,'') AS updated_at
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
