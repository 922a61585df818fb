package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"glowshop/internal/domain"
)

type AnalyticsRepo struct{ db *sqlx.DB }

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// RegisterConsultation appends one consultation event. Write-only from the
// core's perspective; rankings are read back through the view.
func (r *AnalyticsRepo) RegisterConsultation(productID string, meta domain.ConsultationMeta) error {
	_, err := r.db.Exec(`
  INSERT INTO consultations(id,product_id,ip_address,user_agent,referrer,session_id)
  VALUES(?,?,?,?,?,?)`,
		uuid.NewString(), productID, meta.IPAddress, meta.UserAgent, meta.Referrer, meta.SessionID)
	return wrap("analytics.register_consultation", err)
}

// MostRequested reads the consultation-volume ranking, highest first.
func (r *AnalyticsRepo) MostRequested(limit int) ([]domain.MostRequested, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []domain.MostRequested
	err := r.db.Select(&out, `
  SELECT product_id, name, brand_name, base_price, currency, image_url,
         total_consultations, last_consultation
  FROM v_most_requested
  ORDER BY total_consultations DESC
  LIMIT ?`, limit)
	return out, wrap("analytics.most_requested", err)
}
