package postgres

import (
	"context"
	"database/sql"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type proofRepository struct {
	db *sql.DB
}

func NewProofRepository(db *sql.DB) repository.ProofRepository {
	return &proofRepository{db: db}
}

func (r *proofRepository) Create(ctx context.Context, proof *domain.Proof) error {
	// proofs carries UNIQUE (tx_id, phase, captured_by); the handover service
	// pre-checks, this constraint is the backstop against a racing duplicate.
	query := `INSERT INTO proofs (id, tx_id, phase, captured_by, media_ref, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	proof.CreatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		proof.ID, proof.TxID, proof.Phase, proof.CapturedBy, proof.MediaRef, proof.CreatedOn)
	return err
}

func (r *proofRepository) ListByTx(ctx context.Context, txID string) ([]domain.Proof, error) {
	query := `SELECT id, tx_id, phase, captured_by, media_ref, created_on
	          FROM proofs WHERE tx_id = $1 ORDER BY created_on ASC`
	return r.queryProofs(ctx, query, txID)
}

func (r *proofRepository) Exists(ctx context.Context, txID string, phase domain.HandoverPhase, party domain.ProofParty) (bool, error) {
	query := `SELECT count(*) FROM proofs WHERE tx_id = $1 AND phase = $2 AND captured_by = $3`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, txID, phase, party).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *proofRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Proof, error) {
	query := `SELECT id, tx_id, phase, captured_by, media_ref, created_on
	          FROM proofs WHERE created_on < $1`
	return r.queryProofs(ctx, query, cutoff)
}

func (r *proofRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM proofs WHERE id = $1`, id)
	return err
}

func (r *proofRepository) queryProofs(ctx context.Context, query string, args ...interface{}) ([]domain.Proof, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proofs []domain.Proof
	for rows.Next() {
		var p domain.Proof
		if err := rows.Scan(&p.ID, &p.TxID, &p.Phase, &p.CapturedBy, &p.MediaRef, &p.CreatedOn); err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}
