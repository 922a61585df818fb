package domain

// GenericBrand is the display label used when a product has no brand row.
const GenericBrand = "Genérico"

type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	Active      bool   `db:"active" json:"active"`
	CreatedAt   string `db:"created_at" json:"created_at"`
	UpdatedAt   string `db:"updated_at" json:"updated_at,omitempty"`
}

// Brand has the same shape as Category but its own identifier space.
type Brand struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	Active      bool   `db:"active" json:"active"`
	CreatedAt   string `db:"created_at" json:"created_at"`
	UpdatedAt   string `db:"updated_at" json:"updated_at,omitempty"`
}

type Product struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description,omitempty"`
	BrandID     string  `db:"brand_id" json:"brand_id,omitempty"`
	CategoryID  string  `db:"category_id" json:"category_id,omitempty"`
	Qty         int     `db:"qty" json:"qty"`
	BasePrice   float64 `db:"base_price" json:"base_price"`
	Currency    string  `db:"currency" json:"currency"`
	ImageURL    string  `db:"image_url" json:"image_url,omitempty"`
	OnOffer     bool    `db:"on_offer" json:"on_offer"`
	Featured    bool    `db:"featured" json:"featured"`
	Active      bool    `db:"active" json:"active"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
	UpdatedAt   string  `db:"updated_at" json:"updated_at,omitempty"`
}

// ProductView is a Product pre-joined with its brand and category display
// names and the price currently in effect (active offer wins over base price).
type ProductView struct {
	Product
	BrandName    string  `db:"brand_name" json:"brand_name"`
	CategoryName string  `db:"category_name" json:"category_name"`
	FinalPrice   float64 `db:"final_price" json:"final_price"`
	Offers       []Offer `db:"-" json:"offers,omitempty"`
}

type OfferKind string

const (
	OfferFixedPrice OfferKind = "fixed_price"
	OfferPercentage OfferKind = "percentage"
)

type Offer struct {
	ID            string    `db:"id" json:"id"`
	ProductID     string    `db:"product_id" json:"product_id"`
	Kind          OfferKind `db:"kind" json:"kind"`
	DiscountValue float64   `db:"discount_value" json:"discount_value"`
	SpecialPrice  float64   `db:"special_price" json:"special_price,omitempty"`
	FinalPrice    float64   `db:"final_price" json:"final_price"`
	StartsAt      string    `db:"starts_at" json:"starts_at"`
	EndsAt        string    `db:"ends_at" json:"ends_at,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     string    `db:"created_at" json:"created_at"`
}

// MostRequested is one row of the consultation-volume ranking. The ranking
// itself is computed in the data service (v_most_requested); we only read it.
type MostRequested struct {
	ProductID          string  `db:"product_id" json:"product_id"`
	Name               string  `db:"name" json:"name"`
	BrandName          string  `db:"brand_name" json:"brand_name"`
	BasePrice          float64 `db:"base_price" json:"base_price"`
	Currency           string  `db:"currency" json:"currency"`
	ImageURL           string  `db:"image_url" json:"image_url,omitempty"`
	TotalConsultations int     `db:"total_consultations" json:"total_consultations"`
	LastConsultation   string  `db:"last_consultation" json:"last_consultation,omitempty"`
}

// ConsultationMeta is free-form client metadata attached to a consultation
// event. Every field is optional.
type ConsultationMeta struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ProductInput carries seller-submitted fields for a new product.
type ProductInput struct {
	Name        string
	Description string
	BrandID     string
	CategoryID  string
	Qty         int
	BasePrice   float64
	Currency    string
	ImageURL    string
	Featured    bool
}

// OfferInput carries fields for a new or updated offer. StartsAt defaults to
// the current time when empty.
type OfferInput struct {
	ProductID     string
	Kind          OfferKind
	DiscountValue float64
	SpecialPrice  float64
	StartsAt      string
	EndsAt        string
}
