package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReconRepo records reconciliation tasks for writes that completed only
// partially (offer row persisted, product flag not flipped). A task is a
// durable note for a later repair pass, not a retry mechanism.
type ReconRepo struct{ db *sqlx.DB }

func NewReconRepo(db *sqlx.DB) *ReconRepo { return &ReconRepo{db: db} }

func (r *ReconRepo) Record(productID, detail string) error {
	_, err := r.db.Exec(`INSERT INTO reconciliation_tasks(id,product_id,detail) VALUES(?,?,?)`,
		uuid.NewString(), productID, detail)
	return wrap("recon.record", err)
}

func (r *ReconRepo) PendingCount() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM reconciliation_tasks WHERE resolved=0`)
	return n, wrap("recon.pending_count", err)
}

func (r *ReconRepo) Resolve(id string) error {
	_, err := r.db.Exec(`UPDATE reconciliation_tasks SET resolved=1 WHERE id=?`, id)
	return wrap("recon.resolve", err)
}
