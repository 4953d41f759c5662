package services_test

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"tradeup/internal/repos"
	"tradeup/internal/services"
)

// memdb bootstraps an in-memory database with the production schema.
// A single connection keeps every query on the same :memory: instance.
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, repos.EnsureSchema(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUser(t *testing.T, db *sqlx.DB, id string, score int) {
	t.Helper()
	db.MustExec(`INSERT INTO users(id,email,name,password_hash,role,credit_score,balance)
	  VALUES (?,?,?,?,?,?,?)`, id, id+"@example.com", id, "x", "USER", score, 10000)
}

// seedCatalog inserts the minimal reference chain products hang off.
func seedCatalog(t *testing.T, db *sqlx.DB) {
	t.Helper()
	db.MustExec(`INSERT INTO categories(id,name,code) VALUES ('cat-1','Phones','mobile')`)
	db.MustExec(`INSERT INTO brands(id,category_id,name) VALUES ('br-1','cat-1','Apple')`)
	db.MustExec(`INSERT INTO device_models(id,brand_id,name,base_price,release_year,storage_spec)
	  VALUES ('dm-1','br-1','iPhone 13',6000,2021,'128GB')`)
	db.MustExec(`INSERT INTO condition_grades(id,category_id,label,factor) VALUES
	  ('gr-likenew','cat-1','like new',0.95),
	  ('gr-excellent','cat-1','excellent',0.83),
	  ('gr-good','cat-1','good',0.75),
	  ('gr-fair','cat-1','fair',0.60)`)
}

func seedProduct(t *testing.T, db *sqlx.DB, id, sellerID, status, price string) {
	t.Helper()
	db.MustExec(`INSERT INTO products(id,seller_id,device_model_id,title,estimated_price,selling_price,status)
	  VALUES (?,?,'dm-1','Used phone',?,?,?)`, id, sellerID, price, price, status)
}

func userScore(t *testing.T, db *sqlx.DB, id string) int {
	t.Helper()
	var score int
	require.NoError(t, db.Get(&score, `SELECT credit_score FROM users WHERE id=?`, id))
	return score
}

func productStatus(t *testing.T, db *sqlx.DB, id string) string {
	t.Helper()
	var status string
	require.NoError(t, db.Get(&status, `SELECT status FROM products WHERE id=?`, id))
	return status
}

func creditService(db *sqlx.DB) *services.CreditService {
	return services.NewCreditService(db, repos.NewUserRepo(db), repos.NewCreditRepo(db))
}

func orderService(db *sqlx.DB) *services.OrderService {
	return services.NewOrderService(db, repos.NewOrderRepo(db), repos.NewProductRepo(db),
		repos.NewUserRepo(db), creditService(db))
}

func tradeService(db *sqlx.DB) *services.TradeService {
	flow := orderService(db)
	return services.NewTradeService(db, repos.NewProductRepo(db), repos.NewOrderRepo(db),
		repos.NewUserRepo(db), flow)
}
