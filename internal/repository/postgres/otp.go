package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type proximityCodeRepository struct {
	db *sql.DB
}

func NewProximityCodeRepository(db *sql.DB) repository.ProximityCodeRepository {
	return &proximityCodeRepository{db: db}
}

func (r *proximityCodeRepository) Create(ctx context.Context, code *domain.ProximityCode) error {
	query := `INSERT INTO proximity_codes (id, tx_id, phase, code_hash, attempts, consumed, expires_on, created_on)
	          VALUES ($1, $2, $3, $4, 0, false, $5, $6)`
	code.CreatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		code.ID, code.TxID, code.Phase, code.CodeHash, code.ExpiresOn, code.CreatedOn)
	return err
}

func (r *proximityCodeRepository) GetActive(ctx context.Context, txID string, phase domain.HandoverPhase) (*domain.ProximityCode, error) {
	code := &domain.ProximityCode{}
	query := `SELECT id, tx_id, phase, code_hash, attempts, consumed, expires_on, created_on
	          FROM proximity_codes WHERE tx_id = $1 AND phase = $2 AND consumed = false
	          ORDER BY created_on DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, txID, phase).Scan(
		&code.ID, &code.TxID, &code.Phase, &code.CodeHash,
		&code.Attempts, &code.Consumed, &code.ExpiresOn, &code.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

// Consume invalidates the code with a single check-and-set, so the first
// successful match wins and any replay of the same code fails.
func (r *proximityCodeRepository) Consume(ctx context.Context, id string) error {
	query := `UPDATE proximity_codes SET consumed = true WHERE id = $1 AND consumed = false`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrStale
	}
	return nil
}

func (r *proximityCodeRepository) IncrementAttempts(ctx context.Context, id string) (int64, error) {
	query := `UPDATE proximity_codes SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`
	var attempts int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *proximityCodeRepository) HasConsumed(ctx context.Context, txID string, phase domain.HandoverPhase) (bool, error) {
	query := `SELECT count(*) FROM proximity_codes
	          WHERE tx_id = $1 AND phase = $2 AND consumed = true`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, txID, phase).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteExpired purges stale unconsumed codes. Consumed rows are kept: they
// are the proof that verification happened for their phase.
func (r *proximityCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM proximity_codes WHERE consumed = false AND expires_on < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
