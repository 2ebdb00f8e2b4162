package postgres

import (
	"context"
	"database/sql"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type checklistRepository struct {
	db *sql.DB
}

func NewChecklistRepository(db *sql.DB) repository.ChecklistRepository {
	return &checklistRepository{db: db}
}

func (r *checklistRepository) Upsert(ctx context.Context, txID string, phase domain.HandoverPhase, answers domain.Checklist) error {
	query := `INSERT INTO checklist_items (tx_id, phase, name, satisfied, updated_on)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (tx_id, phase, name) DO UPDATE SET satisfied = $4, updated_on = $5`
	now := time.Now()
	for name, satisfied := range answers {
		if _, err := r.db.ExecContext(ctx, query, txID, phase, name, satisfied, now); err != nil {
			return err
		}
	}
	return nil
}

func (r *checklistRepository) Get(ctx context.Context, txID string, phase domain.HandoverPhase) (domain.Checklist, error) {
	query := `SELECT name, satisfied FROM checklist_items WHERE tx_id = $1 AND phase = $2`
	rows, err := r.db.QueryContext(ctx, query, txID, phase)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checklist := domain.Checklist{}
	for rows.Next() {
		var name string
		var satisfied bool
		if err := rows.Scan(&name, &satisfied); err != nil {
			return nil, err
		}
		checklist[name] = satisfied
	}
	return checklist, rows.Err()
}
