package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, name, email, avatar_url, trust_score, kyc_status, version, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	now := time.Now()
	user.Version = 1
	user.CreatedOn = now
	user.UpdatedOn = now
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.AvatarURL, user.TrustScore, user.KYCStatus, user.Version, now, now)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, name, email, avatar_url, trust_score, kyc_status, version, created_on, updated_on
	          FROM users WHERE ` + column + ` = $1`
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.Name, &user.Email, &user.AvatarURL,
		&user.TrustScore, &user.KYCStatus, &user.Version, &user.CreatedOn, &user.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateTrustScore serializes per user the same way transaction transitions
// serialize per transaction: version-guarded UPDATE, ErrStale on a lost race.
func (r *userRepository) UpdateTrustScore(ctx context.Context, id string, score, version int64) error {
	query := `UPDATE users SET trust_score = $1, version = version + 1, updated_on = $2
	          WHERE id = $3 AND version = $4`
	res, err := r.db.ExecContext(ctx, query, score, time.Now(), id, version)
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
