package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const txColumns = `id, item_id, renter_id, owner_id, start_date, end_date,
	rental_fee_cents, insurance_fee_cents, trust_bonus_cents, total_cents,
	status, escrow_state, hold_ref, dispute_reason, version, created_on, updated_on`

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (id, item_id, renter_id, owner_id, start_date, end_date,
	          rental_fee_cents, insurance_fee_cents, trust_bonus_cents, total_cents,
	          status, escrow_state, version, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	now := time.Now()
	tx.Version = 1
	tx.CreatedOn = now
	tx.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.ItemID, tx.RenterID, tx.OwnerID, tx.StartDate, tx.EndDate,
		tx.RentalFeeCents, tx.InsuranceFeeCents, tx.TrustBonusCents, tx.TotalCents,
		tx.Status, tx.EscrowState, tx.Version, now, now)
	return err
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tx.ID, &tx.ItemID, &tx.RenterID, &tx.OwnerID, &tx.StartDate, &tx.EndDate,
		&tx.RentalFeeCents, &tx.InsuranceFeeCents, &tx.TrustBonusCents, &tx.TotalCents,
		&tx.Status, &tx.EscrowState, &tx.HoldRef, &tx.DisputeReason, &tx.Version, &tx.CreatedOn, &tx.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// UpdateStatus is the serialization point for transitions: the WHERE clause
// re-checks both status and version, so a concurrent writer makes this
// match zero rows instead of clobbering.
func (r *transactionRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus, version int64) error {
	query := `UPDATE transactions SET status = $1, version = version + 1, updated_on = $2
	          WHERE id = $3 AND status = $4 AND version = $5`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from, version)
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

// HoldEscrow is the commit point for funding: status, escrow state, and the
// gateway hold reference land in one statement, so the row is either fully
// funded or untouched.
func (r *transactionRepository) HoldEscrow(ctx context.Context, id, holdRef string, version int64) error {
	query := `UPDATE transactions
	          SET status = $1, escrow_state = $2, hold_ref = $3, version = version + 1, updated_on = $4
	          WHERE id = $5 AND status = $6 AND escrow_state = $7 AND version = $8`
	res, err := r.db.ExecContext(ctx, query,
		domain.StatusEscrowHeld, domain.EscrowStateHeld, holdRef, time.Now(),
		id, domain.StatusRequested, domain.EscrowStateNone, version)
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

func (r *transactionRepository) SetEscrowState(ctx context.Context, id string, from, to domain.EscrowState) error {
	query := `UPDATE transactions SET escrow_state = $1, updated_on = $2
	          WHERE id = $3 AND escrow_state = $4`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
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

func (r *transactionRepository) SetDisputeReason(ctx context.Context, id, reason string) error {
	query := `UPDATE transactions SET dispute_reason = $1, updated_on = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, reason, time.Now(), id)
	return err
}

func (r *transactionRepository) HasOverlapping(ctx context.Context, itemID, startDate, endDate string) (bool, error) {
	query := `SELECT count(*) FROM transactions
	          WHERE item_id = $1 AND status NOT IN ('COMPLETED', 'CANCELLED', 'DISPUTED')
	          AND start_date < $3 AND end_date > $2`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, itemID, startDate, endDate).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *transactionRepository) ListByRenter(ctx context.Context, renterID string, status string, page, pageSize int64) ([]domain.Transaction, int64, error) {
	return r.list(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *transactionRepository) ListByOwner(ctx context.Context, ownerID string, status string, page, pageSize int64) ([]domain.Transaction, int64, error) {
	return r.list(ctx, "owner_id", ownerID, status, page, pageSize)
}

func (r *transactionRepository) list(ctx context.Context, column, userID, status string, page, pageSize int64) ([]domain.Transaction, int64, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + txColumns + ` FROM transactions WHERE ` + column + ` = $1`

	args := []interface{}{userID}
	argIdx := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int64
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.ItemID, &tx.RenterID, &tx.OwnerID, &tx.StartDate, &tx.EndDate,
			&tx.RentalFeeCents, &tx.InsuranceFeeCents, &tx.TrustBonusCents, &tx.TotalCents,
			&tx.Status, &tx.EscrowState, &tx.HoldRef, &tx.DisputeReason, &tx.Version, &tx.CreatedOn, &tx.UpdatedOn); err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	return txs, count, rows.Err()
}

func (r *transactionRepository) ListOverdueActive(ctx context.Context, today string) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE status = 'ACTIVE' AND end_date < $1`
	rows, err := r.db.QueryContext(ctx, query, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.ItemID, &tx.RenterID, &tx.OwnerID, &tx.StartDate, &tx.EndDate,
			&tx.RentalFeeCents, &tx.InsuranceFeeCents, &tx.TrustBonusCents, &tx.TotalCents,
			&tx.Status, &tx.EscrowState, &tx.HoldRef, &tx.DisputeReason, &tx.Version, &tx.CreatedOn, &tx.UpdatedOn); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
