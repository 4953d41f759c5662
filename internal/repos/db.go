package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string, seed bool) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	if seed {
		// Idempotent; safe to run every start.
		if err := seedCatalog(db); err != nil {
			return nil, err
		}
		if err := seedUsers(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// EnsureSchema creates all tables. Exported so tests can bootstrap an
// in-memory database with the production schema.
func EnsureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  credit_score INTEGER NOT NULL DEFAULT 100 CHECK (credit_score BETWEEN 0 AND 120),
  balance NUMERIC NOT NULL DEFAULT 10000,
  trade_count INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Device catalog (read-only reference data for pricing)
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  code TEXT NOT NULL UNIQUE           -- pricing key: mobile, laptop, ...
);

CREATE TABLE IF NOT EXISTS brands(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_brands_category ON brands(category_id);

CREATE TABLE IF NOT EXISTS device_models(
  id TEXT PRIMARY KEY,
  brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  base_price NUMERIC NOT NULL CHECK (base_price >= 0),
  release_year INTEGER NOT NULL DEFAULT 0,
  storage_spec TEXT NOT NULL DEFAULT '',
  discontinued INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_device_models_brand ON device_models(brand_id);

CREATE TABLE IF NOT EXISTS condition_grades(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  label TEXT NOT NULL,
  factor NUMERIC NOT NULL CHECK (factor > 0 AND factor <= 1),
  UNIQUE(category_id, label)
);

-- Listings
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
  device_model_id TEXT NOT NULL REFERENCES device_models(id) ON DELETE RESTRICT,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  estimated_price NUMERIC NOT NULL,
  selling_price NUMERIC NOT NULL CHECK (selling_price >= 0),
  status TEXT NOT NULL DEFAULT 'draft'
    CHECK (status IN ('draft','on_sale','locked','sold','cancelled')),
  quality_grade TEXT NOT NULL DEFAULT 'B',
  condition_json TEXT NOT NULL DEFAULT '{}',
  view_count INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_seller ON products(seller_id);
CREATE INDEX IF NOT EXISTS idx_products_status ON products(status);

-- Orders: at most one live order per product; refunded orders release
-- the slot so a relisted product can be bought again. An order existing
-- protects the product row from deletion.
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  order_no TEXT NOT NULL UNIQUE,
  buyer_id TEXT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_payment'
    CHECK (status IN ('pending_payment','pending_shipment','shipped','completed','refunded')),
  pay_time TEXT NOT NULL DEFAULT '',
  ship_time TEXT NOT NULL DEFAULT '',
  complete_time TEXT NOT NULL DEFAULT '',
  cancel_time TEXT NOT NULL DEFAULT '',
  buyer_message TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_live_product
  ON orders(product_id) WHERE status != 'refunded';

-- Credit ledger: append-only. The unique index is the idempotency
-- key and the TOCTOU backstop behind the conditional insert.
CREATE TABLE IF NOT EXISTS credit_events(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  event_type TEXT NOT NULL
    CHECK (event_type IN ('order_completed','payment_cancelled','order_refunded','manual_adjust')),
  ref_type TEXT NOT NULL DEFAULT '',
  ref_id TEXT NOT NULL DEFAULT '',
  delta INTEGER NOT NULL,
  score_after INTEGER NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(user_id, event_type, ref_type, ref_id)
);
CREATE INDEX IF NOT EXISTS idx_credit_events_user ON credit_events(user_id, created_at);
`
	_, err := db.Exec(schema)
	return err
}

// seedCatalog inserts demo categories/brands/models/grades if absent.
func seedCatalog(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo catalog")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO categories(id,name,code) VALUES
	  ('cat-mobile','Phones','mobile'),
	  ('cat-laptop','Laptops','laptop'),
	  ('cat-tablet','Tablets','tablet'),
	  ('cat-console','Game Consoles','console'),
	  ('cat-camera','Cameras','camera'),
	  ('cat-audio','Headphones & Audio','audio')`)

	tx.MustExec(`INSERT INTO brands(id,category_id,name) VALUES
	  ('br-apple-mobile','cat-mobile','Apple'),
	  ('br-samsung-mobile','cat-mobile','Samsung'),
	  ('br-apple-laptop','cat-laptop','Apple'),
	  ('br-lenovo-laptop','cat-laptop','Lenovo'),
	  ('br-apple-tablet','cat-tablet','Apple'),
	  ('br-sony-console','cat-console','Sony'),
	  ('br-nintendo-console','cat-console','Nintendo'),
	  ('br-canon-camera','cat-camera','Canon'),
	  ('br-sony-audio','cat-audio','Sony')`)

	tx.MustExec(`INSERT INTO device_models(id,brand_id,name,base_price,release_year,storage_spec) VALUES
	  ('dm-iphone13','br-apple-mobile','iPhone 13',6000,2021,'128GB'),
	  ('dm-iphone12','br-apple-mobile','iPhone 12',4800,2020,'128GB'),
	  ('dm-s21','br-samsung-mobile','Galaxy S21',4500,2021,'256GB'),
	  ('dm-mbp14','br-apple-laptop','MacBook Pro 14',15000,2021,'512GB'),
	  ('dm-x1c','br-lenovo-laptop','ThinkPad X1 Carbon',9800,2021,'512GB'),
	  ('dm-ipadpro11','br-apple-tablet','iPad Pro 11',6200,2021,'256GB'),
	  ('dm-ps5','br-sony-console','PlayStation 5',3900,2020,'825GB'),
	  ('dm-switch','br-nintendo-console','Switch OLED',2400,2021,'64GB'),
	  ('dm-r6','br-canon-camera','EOS R6',16000,2020,''),
	  ('dm-wh1000','br-sony-audio','WH-1000XM4',2300,2020,'')`)

	// One grade table per category, same ladder.
	grades := []struct {
		label  string
		factor string
	}{
		{"like new", "0.95"},
		{"excellent", "0.83"},
		{"good", "0.75"},
		{"fair", "0.60"},
	}
	var cats []string
	if err := tx.Select(&cats, `SELECT id FROM categories`); err != nil {
		return err
	}
	for _, cat := range cats {
		for _, g := range grades {
			tx.MustExec(`INSERT INTO condition_grades(id,category_id,label,factor)
			  VALUES(?,?,?,?)`, "cg-"+cat+"-"+g.label, cat, g.label, g.factor)
		}
	}

	return tx.Commit()
}

// seedUsers ensures demo accounts exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
		Score                       int
	}
	mk := func(id, email, name, role, raw string, score int) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h), Score: score}
	}

	users := []u{
		mk("u-alice", "alice@tradeup.test", "Alice", "USER", "Passw0rd!", 100),
		mk("u-bob", "bob@tradeup.test", "Bob", "USER", "Passw0rd!", 100),
		mk("u-carol", "carol@tradeup.test", "Carol", "USER", "Passw0rd!", 55), // below trade threshold
		mk("u-admin", "admin@tradeup.test", "Admin", "ADMIN", "Passw0rd!", 120),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role,credit_score)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role, x.Score); err != nil {
			return err
		}
	}

	return tx.Commit()
}
