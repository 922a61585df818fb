package repos

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"glowshop/internal/domain"
)

type OfferRepo struct{ db *sqlx.DB }

func NewOfferRepo(db *sqlx.DB) *OfferRepo { return &OfferRepo{db: db} }

// FinalPrice resolves the price an offer yields for a given base price.
// A special price, when set, wins over the discount rule.
func FinalPrice(in domain.OfferInput, basePrice float64) float64 {
	if in.SpecialPrice > 0 {
		return in.SpecialPrice
	}
	switch in.Kind {
	case domain.OfferPercentage:
		return math.Round(basePrice*(1-in.DiscountValue/100)*100) / 100
	default: // fixed_price: the discount magnitude is the final price
		return in.DiscountValue
	}
}

// Create persists a new offer. The start timestamp defaults to now. The
// final price is computed here and must not exceed the product's base
// price; that invariant is enforced at this boundary, before persistence.
func (r *OfferRepo) Create(in domain.OfferInput) (domain.Offer, error) {
	const op = "offers.create"
	if in.ProductID == "" {
		return domain.Offer{}, validationErr(op, "product id is required")
	}
	if in.Kind != domain.OfferFixedPrice && in.Kind != domain.OfferPercentage {
		return domain.Offer{}, validationErr(op, "unknown offer kind")
	}
	if in.Kind == domain.OfferPercentage && (in.DiscountValue <= 0 || in.DiscountValue > 100) {
		return domain.Offer{}, validationErr(op, "percentage must be in (0,100]")
	}

	var basePrice float64
	if err := r.db.Get(&basePrice, `SELECT base_price FROM products WHERE id=?`, in.ProductID); err != nil {
		return domain.Offer{}, wrap(op, err)
	}
	final := FinalPrice(in, basePrice)
	if final > basePrice {
		return domain.Offer{}, validationErr(op, "final price exceeds product base price")
	}
	if final < 0 {
		return domain.Offer{}, validationErr(op, "final price must be non-negative")
	}

	startsAt := in.StartsAt
	if startsAt == "" {
		startsAt = time.Now().UTC().Format(time.RFC3339)
	}

	o := domain.Offer{
		ID:            uuid.NewString(),
		ProductID:     in.ProductID,
		Kind:          in.Kind,
		DiscountValue: in.DiscountValue,
		SpecialPrice:  in.SpecialPrice,
		FinalPrice:    final,
		StartsAt:      startsAt,
		EndsAt:        in.EndsAt,
		Active:        true,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	_, err := r.db.Exec(`
  INSERT INTO offers(id,product_id,kind,discount_value,special_price,final_price,starts_at,ends_at,active,created_at)
  VALUES(?,?,?,?,?,?,?,?,1,?)`,
		o.ID, o.ProductID, string(o.Kind), o.DiscountValue, o.SpecialPrice, o.FinalPrice,
		o.StartsAt, o.EndsAt, o.CreatedAt)
	return o, wrap(op, err)
}

func (r *OfferRepo) Update(id string, in domain.OfferInput) (domain.Offer, error) {
	const op = "offers.update"
	var productID string
	if err := r.db.Get(&productID, `SELECT product_id FROM offers WHERE id=?`, id); err != nil {
		return domain.Offer{}, wrap(op, err)
	}
	var basePrice float64
	if err := r.db.Get(&basePrice, `SELECT base_price FROM products WHERE id=?`, productID); err != nil {
		return domain.Offer{}, wrap(op, err)
	}
	final := FinalPrice(in, basePrice)
	if final > basePrice {
		return domain.Offer{}, validationErr(op, "final price exceeds product base price")
	}
	_, err := r.db.Exec(`
  UPDATE offers SET kind=?, discount_value=?, special_price=?, final_price=?, ends_at=?
  WHERE id=?`,
		string(in.Kind), in.DiscountValue, in.SpecialPrice, final, in.EndsAt, id)
	if err != nil {
		return domain.Offer{}, wrap(op, err)
	}
	return r.get(id)
}

// Delete removes the offer and reports which product owned it so the caller
// can flip the product flag back.
func (r *OfferRepo) Delete(id string) (productID string, err error) {
	const op = "offers.delete"
	if err := r.db.Get(&productID, `SELECT product_id FROM offers WHERE id=?`, id); err != nil {
		return "", wrap(op, err)
	}
	if _, err := r.db.Exec(`DELETE FROM offers WHERE id=?`, id); err != nil {
		return "", wrap(op, err)
	}
	return productID, nil
}

func (r *OfferRepo) ListByProduct(productID string) ([]domain.Offer, error) {
	var out []domain.Offer
	err := r.db.Select(&out, `
  SELECT id, product_id, kind, discount_value, COALESCE(special_price,0) AS special_price,
         final_price, starts_at, COALESCE(ends_at,'') AS ends_at, active, created_at
  FROM offers WHERE product_id=? ORDER BY created_at DESC`, productID)
	return out, wrap("offers.list_by_product", err)
}

func (r *OfferRepo) get(id string) (domain.Offer, error) {
	var o domain.Offer
	err := r.db.Get(&o, `
  SELECT id, product_id, kind, discount_value, COALESCE(special_price,0) AS special_price,
         final_price, starts_at, COALESCE(ends_at,'') AS ends_at, active, created_at
  FROM offers WHERE id=?`, id)
	if err != nil {
		return domain.Offer{}, wrap("offers.get", err)
	}
	return o, nil
}
