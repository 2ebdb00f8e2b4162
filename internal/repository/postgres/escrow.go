package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type escrowRepository struct {
	db *sql.DB
}

func NewEscrowRepository(db *sql.DB) repository.EscrowRepository {
	return &escrowRepository{db: db}
}

func (r *escrowRepository) CreateEntry(ctx context.Context, entry *domain.EscrowEntry) error {
	query := `INSERT INTO escrow_entries (tx_id, type, amount_cents, hold_ref, reason, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	entry.CreatedOn = time.Now()
	return r.db.QueryRowContext(ctx, query,
		entry.TxID, entry.Type, entry.AmountCents, entry.HoldRef, entry.Reason, entry.CreatedOn).Scan(&entry.ID)
}

func (r *escrowRepository) GetHold(ctx context.Context, txID string) (*domain.EscrowEntry, error) {
	entry := &domain.EscrowEntry{}
	query := `SELECT id, tx_id, type, amount_cents, hold_ref, reason, created_on
	          FROM escrow_entries WHERE tx_id = $1 AND type = 'HOLD'
	          ORDER BY created_on DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, txID).Scan(
		&entry.ID, &entry.TxID, &entry.Type, &entry.AmountCents, &entry.HoldRef, &entry.Reason, &entry.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *escrowRepository) ListByTx(ctx context.Context, txID string) ([]domain.EscrowEntry, error) {
	query := `SELECT id, tx_id, type, amount_cents, hold_ref, reason, created_on
	          FROM escrow_entries WHERE tx_id = $1 ORDER BY created_on ASC`
	rows, err := r.db.QueryContext(ctx, query, txID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.EscrowEntry
	for rows.Next() {
		var e domain.EscrowEntry
		if err := rows.Scan(&e.ID, &e.TxID, &e.Type, &e.AmountCents, &e.HoldRef, &e.Reason, &e.CreatedOn); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
