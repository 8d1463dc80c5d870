// Package secrets provides the PostgreSQL-backed repository for imported
// financial records (the "secrets" table): credential lookup and the
// exclusive claim write.
package secrets

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

const columns = `id, contract_number, account_number, claimed_by, claimed_at,
		counterparty, electricity, accrual, tax_income, tax_military, payout`

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanSecret(row interface {
	Scan(dest ...any) error
}) (*models.Secret, error) {
	s := &models.Secret{}
	var claimedBy sql.NullString
	var claimedAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.ContractNumber, &s.AccountNumber, &claimedBy, &claimedAt,
		&s.Counterparty, &s.Electricity, &s.Accrual, &s.TaxIncome, &s.TaxMilitary, &s.Payout,
	)
	if err != nil {
		return nil, err
	}
	s.ClaimedBy = claimedBy.String
	s.ClaimedAt = claimedAt.Time
	return s, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Secret, error) {
	query := `SELECT ` + columns + ` FROM secrets WHERE id = $1`

	s, err := scanSecret(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) FindByCredentials(ctx context.Context, contract, account string) (*models.Secret, error) {
	// LIMIT 2: the second row is fetched only to detect duplicated source
	// data, which is rejected instead of resolved by an arbitrary pick.
	query := `
		SELECT ` + columns + ` FROM secrets
		WHERE contract_number = $1 AND account_number = $2
		LIMIT 2
	`

	rows, err := r.db.QueryContext(ctx, query, contract, account)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Secret
	for rows.Next() {
		s, err := scanSecret(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	switch len(result) {
	case 0:
		return nil, common.ErrorNotFound
	case 1:
		return result[0], nil
	default:
		return nil, common.ErrAmbiguousMatch
	}
}

func (r *PostgresRepository) Claim(ctx context.Context, id, userID string, now time.Time) error {
	// The WHERE clause re-checks ownership inside the writing statement,
	// so a competing claim between lookup and commit surfaces as zero
	// rows affected. COALESCE keeps claimed_at stable on self-reclaim.
	query := `
		UPDATE secrets
		SET claimed_by = $2,
		    claimed_at = COALESCE(claimed_at, $3)
		WHERE id = $1 AND (claimed_by IS NULL OR claimed_by = $2)
	`

	res, err := r.db.ExecContext(ctx, query, id, userID, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrClaimConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
