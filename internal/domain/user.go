package domain

import "github.com/shopspring/decimal"

// InitialCreditScore is assigned at registration.
const InitialCreditScore = 100

type User struct {
	ID          string          `db:"id"`
	Email       string          `db:"email"`
	Name        string          `db:"name"`
	Hash        string          `db:"password_hash"`
	Role        string          `db:"role"` // USER | ADMIN
	CreditScore int             `db:"credit_score"`
	Balance     decimal.Decimal `db:"balance"`
	TradeCount  int             `db:"trade_count"`
	CreatedAt   string          `db:"created_at"`
	UpdatedAt   string          `db:"updated_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == "ADMIN" }
