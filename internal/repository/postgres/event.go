package postgres

import (
	"context"
	"database/sql"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.StatusChange) error {
	query := `INSERT INTO transaction_events (tx_id, previous_status, new_status, created_on)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	event.CreatedOn = time.Now()
	return r.db.QueryRowContext(ctx, query,
		event.TxID, event.PreviousStatus, event.NewStatus, event.CreatedOn).Scan(&event.ID)
}

func (r *eventRepository) ListUndispatched(ctx context.Context, limit int64) ([]domain.StatusChange, error) {
	query := `SELECT id, tx_id, previous_status, new_status, created_on, dispatched_on
	          FROM transaction_events WHERE dispatched_on IS NULL
	          ORDER BY created_on ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.StatusChange
	for rows.Next() {
		var e domain.StatusChange
		if err := rows.Scan(&e.ID, &e.TxID, &e.PreviousStatus, &e.NewStatus, &e.CreatedOn, &e.DispatchedOn); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) MarkDispatched(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transaction_events SET dispatched_on = $1 WHERE id = $2`, time.Now(), id)
	return err
}
