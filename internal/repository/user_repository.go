package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = "id, username, password_hash, is_staff"

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

func (r *userRepository) getOne(ctx context.Context, sql string, arg any) (*model.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to scan user")
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// Upsert creates the user or refreshes the credentials of an existing one.
func (r *userRepository) Upsert(ctx context.Context, u *model.User) error {
	sql := `
		INSERT INTO users (username, password_hash, is_staff)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, is_staff = EXCLUDED.is_staff
		RETURNING id
	`

	if err := r.pool.QueryRow(ctx, sql, u.Username, u.PasswordHash, u.IsStaff).Scan(&u.ID); err != nil {
		r.logger.Error().Err(err).Str("username", u.Username).Msg("failed to upsert user")
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	r.logger.Debug().Int64("user_id", u.ID).Str("username", u.Username).Msg("user saved")
	return nil
}
