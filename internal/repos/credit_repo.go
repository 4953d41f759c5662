package repos

import (
	"github.com/jmoiron/sqlx"

	"tradeup/internal/domain"
)

// CreditRepo persists the append-only credit ledger. Rows are never
// updated or deleted.
type CreditRepo struct{ db *sqlx.DB }

func NewCreditRepo(db *sqlx.DB) *CreditRepo { return &CreditRepo{db: db} }

const creditCols = `id,user_id,event_type,ref_type,ref_id,delta,score_after,reason,created_at`

// InsertIfAbsentTx is a single atomic insert-if-absent on the
// idempotency key (user_id,event_type,ref_type,ref_id). It returns
// (created, row): on conflict nothing is written and the existing row
// comes back, so read-then-insert races cannot double-apply.
func (r *CreditRepo) InsertIfAbsentTx(tx *sqlx.Tx, e *domain.CreditEvent) (bool, domain.CreditEvent, error) {
	res, err := tx.Exec(`
	  INSERT INTO credit_events(user_id,event_type,ref_type,ref_id,delta,score_after,reason)
	  VALUES(?,?,?,?,?,?,?)
	  ON CONFLICT(user_id,event_type,ref_type,ref_id) DO NOTHING
	`, e.UserID, e.EventType, e.RefType, e.RefID, e.Delta, e.ScoreAfter, e.Reason)
	if err != nil {
		return false, domain.CreditEvent{}, err
	}

	var row domain.CreditEvent
	if err := tx.Get(&row, `
	  SELECT `+creditCols+` FROM credit_events
	  WHERE user_id=? AND event_type=? AND ref_type=? AND ref_id=?
	`, e.UserID, e.EventType, e.RefType, e.RefID); err != nil {
		return false, domain.CreditEvent{}, err
	}

	n, _ := res.RowsAffected()
	return n > 0, row, nil
}

func (r *CreditRepo) ListByUser(userID string, limit int) ([]domain.CreditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.CreditEvent
	err := r.db.Select(&out, `
	  SELECT `+creditCols+` FROM credit_events
	  WHERE user_id = ?
	  ORDER BY id DESC
	  LIMIT ?
	`, userID, limit)
	return out, err
}
