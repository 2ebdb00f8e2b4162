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

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `INSERT INTO items (id, owner_id, title, description, category,
	          price_per_day_cents, deposit_cents, insurance_fee_cents, location, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	item.CreatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.OwnerID, item.Title, item.Description, item.Category,
		item.PricePerDayCents, item.DepositCents, item.InsuranceFeeCents, item.Location, item.CreatedOn)
	return err
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	item := &domain.Item{}
	query := `SELECT id, owner_id, title, description, category, price_per_day_cents,
	          deposit_cents, insurance_fee_cents, location, created_on, deleted_on
	          FROM items WHERE id = $1 AND deleted_on IS NULL`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Category,
		&item.PricePerDayCents, &item.DepositCents, &item.InsuranceFeeCents,
		&item.Location, &item.CreatedOn, &item.DeletedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `UPDATE items SET title=$1, description=$2, category=$3, price_per_day_cents=$4,
	          deposit_cents=$5, insurance_fee_cents=$6, location=$7 WHERE id=$8 AND deleted_on IS NULL`
	_, err := r.db.ExecContext(ctx, query,
		item.Title, item.Description, item.Category, item.PricePerDayCents,
		item.DepositCents, item.InsuranceFeeCents, item.Location, item.ID)
	return err
}

func (r *itemRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE items SET deleted_on = $1 WHERE id = $2 AND deleted_on IS NULL`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

func (r *itemRepository) Search(ctx context.Context, query, category string, maxPriceCents, page, pageSize int64) ([]domain.Item, int64, error) {
	offset := (page - 1) * pageSize
	sqlQuery := `SELECT id, owner_id, title, description, category, price_per_day_cents,
	             deposit_cents, insurance_fee_cents, location, created_on, deleted_on
	             FROM items WHERE deleted_on IS NULL`

	args := []interface{}{}
	argIdx := 1
	if query != "" {
		sqlQuery += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+query+"%")
		argIdx++
	}
	if category != "" {
		sqlQuery += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, category)
		argIdx++
	}
	if maxPriceCents > 0 {
		sqlQuery += fmt.Sprintf(" AND price_per_day_cents <= $%d", argIdx)
		args = append(args, maxPriceCents)
		argIdx++
	}

	var count int64
	countQuery := "SELECT count(*) FROM (" + sqlQuery + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sqlQuery += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Category,
			&item.PricePerDayCents, &item.DepositCents, &item.InsuranceFeeCents,
			&item.Location, &item.CreatedOn, &item.DeletedOn); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, count, rows.Err()
}
