package repos

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"glowshop/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns active categories ordered by name.
func (r *CategoryRepo) List() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `
  SELECT
    id, name, COALESCE(description,'') AS description, active,
    created_at, COALESCE(updated_at,'') AS updated_at
  FROM categories
  WHERE active = 1
  ORDER BY name
`)
	return out, wrap("categories.list", err)
}

func (r *CategoryRepo) Create(name, description string) (domain.Category, error) {
	c := domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	_, err := r.db.Exec(`INSERT INTO categories(id,name,description,active,created_at) VALUES(?,?,?,1,?)`,
		c.ID, c.Name, c.Description, c.CreatedAt)
	return c, wrap("categories.create", err)
}

// Deactivate soft-deletes: the row stays, navigation stops seeing it.
func (r *CategoryRepo) Deactivate(id string) error {
	_, err := r.db.Exec(`UPDATE categories SET active=0, updated_at=CURRENT_TIMESTAMP WHERE id=?`, id)
	return wrap("categories.deactivate", err)
}
