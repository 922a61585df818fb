package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog if DB is empty (brands/categories/products)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure seller/admin accounts exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Categories (soft-deleted via active flag, never hard-deleted)
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Brands (same shape, separate identifier space)
CREATE TABLE IF NOT EXISTS brands(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_brands_name_nocase ON brands(LOWER(name));

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT DEFAULT '',
  brand_id TEXT REFERENCES brands(id) ON DELETE SET NULL,
  category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
  qty INTEGER NOT NULL DEFAULT 0 CHECK (qty >= 0),
  base_price NUMERIC NOT NULL CHECK (base_price >= 0),
  currency TEXT NOT NULL DEFAULT 'USD',
  image_url TEXT DEFAULT '',
  on_offer INTEGER NOT NULL DEFAULT 0,
  featured INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_brand      ON products(brand_id);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name       ON products(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Offers: at most one active offer per product is treated as authoritative
CREATE TABLE IF NOT EXISTS offers(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  kind TEXT NOT NULL CHECK (kind IN ('fixed_price','percentage')),
  discount_value NUMERIC NOT NULL,
  special_price NUMERIC DEFAULT 0,
  final_price NUMERIC NOT NULL CHECK (final_price >= 0),
  starts_at TEXT NOT NULL,
  ends_at TEXT DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_offers_product ON offers(product_id);

-- Consultation events (append-only; rankings derive from these)
CREATE TABLE IF NOT EXISTS consultations(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  ip_address TEXT DEFAULT '',
  user_agent TEXT DEFAULT '',
  referrer TEXT DEFAULT '',
  session_id TEXT DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_consultations_product ON consultations(product_id);

-- Reconciliation queue for the non-transactional offer/flag write
CREATE TABLE IF NOT EXISTS reconciliation_tasks(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  detail TEXT NOT NULL,
  resolved INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Most-requested ranking, computed inside the data service
CREATE VIEW IF NOT EXISTS v_most_requested AS
SELECT
  p.id AS product_id,
  p.name,
  COALESCE(b.name, 'Genérico') AS brand_name,
  p.base_price,
  p.currency,
  COALESCE(p.image_url,'') AS image_url,
  COUNT(c.id) AS total_consultations,
  COALESCE(MAX(c.created_at),'') AS last_consultation
FROM products p
JOIN consultations c ON c.product_id = p.id
LEFT JOIN brands b ON b.id = p.brand_id
WHERE p.active = 1
GROUP BY p.id, p.name, b.name, p.base_price, p.currency, p.image_url;

-- Sellers & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('SELLER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo brands/categories/products")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name,description) VALUES
	  ('labiales','Labiales','Labiales y brillos'),
	  ('bases','Bases','Bases de maquillaje'),
	  ('sombras','Sombras','Paletas de sombras'),
	  ('cuidado-piel','Cuidado de Piel','Cremas y serums')`)

	tx.MustExec(`INSERT INTO brands(id,name,description) VALUES
	  ('mac','MAC','Maquillaje profesional'),
	  ('chanel','Chanel','Alta cosmética'),
	  ('maybelline','Maybelline','Maquillaje accesible')`)

	tx.MustExec(`INSERT INTO products(id,name,description,brand_id,category_id,qty,base_price,currency,image_url,featured) VALUES
	  ('base-mac-01','Base Studio Fix','Base de larga duración','mac','bases',12,45.00,'USD','products/base-mac-01/main.jpg',1),
	  ('labial-chanel-01','Labial Rouge Allure','Labial satinado','chanel','labiales',8,38.00,'USD','products/labial-chanel-01/main.jpg',0),
	  ('sombra-myb-01','Paleta The Nudes','12 tonos neutros','maybelline','sombras',20,15.50,'USD','products/sombra-myb-01/main.jpg',1)`)

	return tx.Commit()
}

// seedUsers ensures one SELLER and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-seller", "seller@glowshop.test", "Seller", "SELLER", "Passw0rd!"),
		mk("u-admin", "admin@glowshop.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
