package repos

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"glowshop/internal/domain"
)

type BrandRepo struct{ db *sqlx.DB }

func NewBrandRepo(db *sqlx.DB) *BrandRepo { return &BrandRepo{db: db} }

// List returns active brands ordered by name.
func (r *BrandRepo) List() ([]domain.Brand, error) {
	var out []domain.Brand
	err := r.db.Select(&out, `
  SELECT
    id, name, COALESCE(description,'') AS description, active,
    created_at, COALESCE(updated_at,'') AS updated_at
  FROM brands
  WHERE active = 1
  ORDER BY name
`)
	return out, wrap("brands.list", err)
}

func (r *BrandRepo) Create(name, description string) (domain.Brand, error) {
	b := domain.Brand{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	_, err := r.db.Exec(`INSERT INTO brands(id,name,description,active,created_at) VALUES(?,?,?,1,?)`,
		b.ID, b.Name, b.Description, b.CreatedAt)
	return b, wrap("brands.create", err)
}

func (r *BrandRepo) Deactivate(id string) error {
	_, err := r.db.Exec(`UPDATE brands SET active=0, updated_at=CURRENT_TIMESTAMP WHERE id=?`, id)
	return wrap("brands.deactivate", err)
}
