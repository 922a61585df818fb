package repos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"glowshop/internal/domain"
)

// ProductFilters are the server-side filter knobs of the offers view. Every
// field is independently optional; zero price bounds mean "unbounded" on
// that side (a real zero-price floor cannot be expressed, see DESIGN.md).
type ProductFilters struct {
	CategoryID string  `json:"category,omitempty"`
	BrandID    string  `json:"brand,omitempty"`
	OnSale     *bool   `json:"on_sale,omitempty"`
	Featured   *bool   `json:"featured,omitempty"`
	Search     string  `json:"search,omitempty"`
	MinPrice   float64 `json:"min_price,omitempty"`
	MaxPrice   float64 `json:"max_price,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// offerJSON builds one offer as a JSON object. Booleans go through json()
// so they decode as true/false instead of 0/1.
const offerJSON = `json_object(
    'id', o.id, 'product_id', o.product_id, 'kind', o.kind,
    'discount_value', o.discount_value,
    'special_price', COALESCE(o.special_price, 0),
    'final_price', o.final_price,
    'starts_at', o.starts_at, 'ends_at', COALESCE(o.ends_at, ''),
    'active', json(CASE WHEN o.active = 1 THEN 'true' ELSE 'false' END),
    'created_at', o.created_at)`

const productViewCols = `
    p.id, p.name, COALESCE(p.description,'') AS description,
    COALESCE(p.brand_id,'') AS brand_id, COALESCE(p.category_id,'') AS category_id,
    p.qty, p.base_price, p.currency, COALESCE(p.image_url,'') AS image_url,
    p.on_offer, p.featured, p.active,
    p.created_at, COALESCE(p.updated_at,'') AS updated_at,
    COALESCE(b.name,'Genérico') AS brand_name,
    COALESCE(c.name,'') AS category_name`

type productRow struct {
	domain.ProductView
	OffersJSON sql.NullString `db:"offers_json"`
}

func (row *productRow) view() domain.ProductView {
	pv := row.ProductView
	var rel domain.Related[domain.Offer]
	if row.OffersJSON.Valid {
		// A decode failure leaves the offer list empty; the product row
		// itself is still usable.
		_ = rel.UnmarshalJSON([]byte(row.OffersJSON.String))
	}
	pv.Offers = rel.List()
	return pv
}

// List returns active products ordered by name, joined with the brand name
// only (generic label when the join is absent). The category display name is
// filled in by the aggregation layer's local join.
func (r *ProductRepo) List() ([]domain.ProductView, error) {
	var rows []productRow
	err := r.db.Select(&rows, `
  SELECT
    p.id, p.name, COALESCE(p.description,'') AS description,
    COALESCE(p.brand_id,'') AS brand_id, COALESCE(p.category_id,'') AS category_id,
    p.qty, p.base_price, p.currency, COALESCE(p.image_url,'') AS image_url,
    p.on_offer, p.featured, p.active,
    p.created_at, COALESCE(p.updated_at,'') AS updated_at,
    COALESCE(b.name,'Genérico') AS brand_name,
    '' AS category_name,
    COALESCE(o.final_price, p.base_price) AS final_price,
    NULL AS offers_json
  FROM products p
  LEFT JOIN brands b ON b.id = p.brand_id
  LEFT JOIN offers o ON o.product_id = p.id AND o.active = 1
  WHERE p.active = 1
  ORDER BY p.name
`)
	if err != nil {
		return nil, wrap("products.list", err)
	}
	return views(rows), nil
}

// ListWithOffers is the filtered offers view: every filter clause is applied
// only when its field is set, ordered by creation time descending. The
// single active offer arrives as an object-or-null JSON column and is
// normalized through Related.
func (r *ProductRepo) ListWithOffers(f ProductFilters) ([]domain.ProductView, error) {
	where := `p.active = 1`
	args := []any{}
	if f.CategoryID != "" {
		where += ` AND p.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.BrandID != "" {
		where += ` AND p.brand_id = ?`
		args = append(args, f.BrandID)
	}
	if f.OnSale != nil {
		where += ` AND p.on_offer = ?`
		args = append(args, boolInt(*f.OnSale))
	}
	if f.Featured != nil {
		where += ` AND p.featured = ?`
		args = append(args, boolInt(*f.Featured))
	}
	if f.Search != "" {
		where += ` AND LOWER(p.name) LIKE ?`
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
	}
	if f.MinPrice > 0 {
		where += ` AND COALESCE(o.final_price, p.base_price) >= ?`
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where += ` AND COALESCE(o.final_price, p.base_price) <= ?`
		args = append(args, f.MaxPrice)
	}

	query := `
  SELECT` + productViewCols + `,
    COALESCE(o.final_price, p.base_price) AS final_price,
    CASE WHEN o.id IS NULL THEN NULL ELSE ` + offerJSON + ` END AS offers_json
  FROM products p
  LEFT JOIN brands b ON b.id = p.brand_id
  LEFT JOIN categories c ON c.id = p.category_id
  LEFT JOIN offers o ON o.product_id = p.id AND o.active = 1
  WHERE ` + where + `
  ORDER BY p.created_at DESC`

	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	var rows []productRow
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, wrap("products.list_with_offers", err)
	}
	return views(rows), nil
}

// GetByID returns one product joined with brand and category names plus the
// full offer collection, normalized to list form.
func (r *ProductRepo) GetByID(id string) (domain.ProductView, error) {
	var row productRow
	err := r.db.Get(&row, `
  SELECT`+productViewCols+`,
    COALESCE(o.final_price, p.base_price) AS final_price,
    (SELECT COALESCE(json_group_array(`+offerJSON+`), '[]')
       FROM offers o WHERE o.product_id = p.id) AS offers_json
  FROM products p
  LEFT JOIN brands b ON b.id = p.brand_id
  LEFT JOIN categories c ON c.id = p.category_id
  LEFT JOIN offers o ON o.product_id = p.id AND o.active = 1
  WHERE p.id = ?
`, id)
	if err != nil {
		return domain.ProductView{}, wrap("products.get", err)
	}
	return row.view(), nil
}

// ListByCategory returns products with their category names, most stocked
// first (the storefront's "by category" carousel ordering).
func (r *ProductRepo) ListByCategory() ([]domain.ProductView, error) {
	var rows []productRow
	err := r.db.Select(&rows, `
  SELECT`+productViewCols+`,
    COALESCE(o.final_price, p.base_price) AS final_price,
    NULL AS offers_json
  FROM products p
  LEFT JOIN brands b ON b.id = p.brand_id
  LEFT JOIN categories c ON c.id = p.category_id
  LEFT JOIN offers o ON o.product_id = p.id AND o.active = 1
  WHERE p.active = 1
  ORDER BY p.qty DESC
`)
	if err != nil {
		return nil, wrap("products.list_by_category", err)
	}
	return views(rows), nil
}

func (r *ProductRepo) Create(in domain.ProductInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, validationErr("products.create", "name is required")
	}
	if in.BasePrice < 0 {
		return domain.Product{}, validationErr("products.create", "base price must be non-negative")
	}
	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		BrandID:     in.BrandID,
		CategoryID:  in.CategoryID,
		Qty:         in.Qty,
		BasePrice:   in.BasePrice,
		Currency:    currency,
		ImageURL:    in.ImageURL,
		Featured:    in.Featured,
		Active:      true,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	_, err := r.db.Exec(`
  INSERT INTO products(id,name,description,brand_id,category_id,qty,base_price,currency,image_url,featured,active,created_at)
  VALUES(?,?,?,?,?,?,?,?,?,?,1,?)`,
		p.ID, p.Name, p.Description, nullable(p.BrandID), nullable(p.CategoryID),
		p.Qty, p.BasePrice, p.Currency, p.ImageURL, boolInt(p.Featured), p.CreatedAt)
	return p, wrap("products.create", err)
}

func (r *ProductRepo) Update(id, name, description string) error {
	res, err := r.db.Exec(`UPDATE products SET name=?, description=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`,
		name, description, id)
	if err != nil {
		return wrap("products.update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap("products.update", sql.ErrNoRows)
	}
	return nil
}

func (r *ProductRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id=?`, id)
	return wrap("products.delete", err)
}

// SetOnOffer flips the denormalized "is on offer" flag. This is step two of
// the non-transactional offer write; callers handle its failure separately.
func (r *ProductRepo) SetOnOffer(id string, on bool) error {
	res, err := r.db.Exec(`UPDATE products SET on_offer=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, boolInt(on), id)
	if err != nil {
		return wrap("products.set_on_offer", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap("products.set_on_offer", sql.ErrNoRows)
	}
	return nil
}

// BasePrice is used by the offer boundary to enforce the final-price
// invariant before persisting.
func (r *ProductRepo) BasePrice(id string) (float64, error) {
	var price float64
	err := r.db.Get(&price, `SELECT base_price FROM products WHERE id=?`, id)
	return price, wrap("products.base_price", err)
}

func views(rows []productRow) []domain.ProductView {
	out := make([]domain.ProductView, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].view())
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
