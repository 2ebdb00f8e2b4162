package postgres

import (
	"context"
	"database/sql"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type trustRepository struct {
	db *sql.DB
}

func NewTrustRepository(db *sql.DB) repository.TrustRepository {
	return &trustRepository{db: db}
}

func (r *trustRepository) CreateEntry(ctx context.Context, entry *domain.TrustScoreEntry) error {
	query := `INSERT INTO trust_score_entries (user_id, tx_id, outcome, score, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	entry.CreatedOn = time.Now()
	return r.db.QueryRowContext(ctx, query,
		entry.UserID, entry.TxID, entry.Outcome, entry.Score, entry.CreatedOn).Scan(&entry.ID)
}

func (r *trustRepository) CountOutcomes(ctx context.Context, userID string) (int64, int64, error) {
	query := `SELECT
	          count(*) FILTER (WHERE t.status = 'COMPLETED'),
	          count(*) FILTER (WHERE t.status = 'DISPUTED')
	          FROM transactions t WHERE t.renter_id = $1 OR t.owner_id = $1`
	var completed, disputed int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&completed, &disputed); err != nil {
		return 0, 0, err
	}
	return completed, disputed, nil
}

func (r *trustRepository) ListByUser(ctx context.Context, userID string, page, pageSize int64) ([]domain.TrustScoreEntry, int64, error) {
	offset := (page - 1) * pageSize

	var count int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM trust_score_entries WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, tx_id, outcome, score, created_on
	          FROM trust_score_entries WHERE user_id = $1
	          ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.TrustScoreEntry
	for rows.Next() {
		var e domain.TrustScoreEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.TxID, &e.Outcome, &e.Score, &e.CreatedOn); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, count, rows.Err()
}
