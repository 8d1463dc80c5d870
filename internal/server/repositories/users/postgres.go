// Package users provides the PostgreSQL-backed repository for chat user
// accounts: attempt counting, ban state and the secret link.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmkov83/enerhobot/internal/common"
	"github.com/dmkov83/enerhobot/internal/dbx"
	"github.com/dmkov83/enerhobot/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.UserAccount, error) {
	query := `
		SELECT id, attempts, is_banned, linked_secret_id, registered_at FROM users
		WHERE id = $1
	`

	user := &models.UserAccount{}
	var linked sql.NullString
	var registered sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Attempts, &user.IsBanned, &linked, &registered)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.LinkedSecretID = linked.String
	user.RegisteredAt = registered.Time

	return user, nil
}

func (r *PostgresRepository) RegisterFailure(ctx context.Context, id string, threshold int) (int, bool, error) {
	// Increment and ban decision happen in one statement so a concurrent
	// duplicate event cannot observe an intermediate counter.
	query := `
		INSERT INTO users (id, attempts, is_banned)
		VALUES ($1, 1, 1 >= $2)
		ON CONFLICT (id) DO UPDATE
		SET attempts  = users.attempts + 1,
		    is_banned = users.attempts + 1 >= $2
		RETURNING attempts, is_banned
	`

	var attempts int
	var banned bool
	err := r.db.QueryRowContext(ctx, query, id, threshold).Scan(&attempts, &banned)
	if err != nil {
		return 0, false, fmt.Errorf("db error: %w", err)
	}

	return attempts, banned, nil
}

func (r *PostgresRepository) Link(ctx context.Context, id, secretID string, now time.Time) error {
	// registered_at survives a self-reclaim: COALESCE keeps the first
	// link timestamp.
	query := `
		INSERT INTO users (id, attempts, is_banned, linked_secret_id, registered_at)
		VALUES ($1, 0, FALSE, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET linked_secret_id = EXCLUDED.linked_secret_id,
		    attempts         = 0,
		    registered_at    = COALESCE(users.registered_at, EXCLUDED.registered_at)
	`

	res, err := r.db.ExecContext(ctx, query, id, secretID, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func (r *PostgresRepository) Unban(ctx context.Context, id string) error {
	query := `
		UPDATE users SET is_banned = FALSE, attempts = 0
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
