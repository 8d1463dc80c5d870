package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmkov83/enerhobot/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	registered := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "attempts", "is_banned", "linked_secret_id", "registered_at"}).
		AddRow("42", 2, false, "eic-001", registered)

	mock.ExpectQuery(`SELECT id, attempts, is_banned, linked_secret_id, registered_at FROM users`).
		WithArgs("42").
		WillReturnRows(rows)

	u, err := repo.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "42" || u.Attempts != 2 || u.IsBanned || u.LinkedSecretID != "eic-001" {
		t.Fatalf("unexpected account: %+v", u)
	}
	if !u.RegisteredAt.Equal(registered) {
		t.Fatalf("registered_at mismatch: %v", u.RegisteredAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGet_NullableColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "attempts", "is_banned", "linked_secret_id", "registered_at"}).
		AddRow("42", 0, false, nil, nil)

	mock.ExpectQuery(`SELECT id, attempts, is_banned, linked_secret_id, registered_at FROM users`).
		WithArgs("42").
		WillReturnRows(rows)

	u, err := repo.Get(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.LinkedSecretID != "" {
		t.Fatalf("expected empty linked secret, got %q", u.LinkedSecretID)
	}
	if !u.RegisteredAt.IsZero() {
		t.Fatalf("expected zero registered_at, got %v", u.RegisteredAt)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, attempts, is_banned, linked_secret_id, registered_at FROM users`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nobody")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestRegisterFailure_Increments(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO users .* ON CONFLICT \(id\) DO UPDATE .* RETURNING attempts, is_banned`)
	mock.ExpectQuery(q.String()).
		WithArgs("42", 5).
		WillReturnRows(sqlmock.NewRows([]string{"attempts", "is_banned"}).AddRow(3, false))

	attempts, banned, err := repo.RegisterFailure(context.Background(), "42", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 || banned {
		t.Fatalf("got attempts=%d banned=%v", attempts, banned)
	}
}

func TestRegisterFailure_BansAtThreshold(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO users .* ON CONFLICT \(id\) DO UPDATE .* RETURNING attempts, is_banned`)
	mock.ExpectQuery(q.String()).
		WithArgs("42", 5).
		WillReturnRows(sqlmock.NewRows([]string{"attempts", "is_banned"}).AddRow(5, true))

	attempts, banned, err := repo.RegisterFailure(context.Background(), "42", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 5 || !banned {
		t.Fatalf("got attempts=%d banned=%v", attempts, banned)
	}
}

func TestRegisterFailure_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO users .* RETURNING attempts, is_banned`)
	mock.ExpectQuery(q.String()).
		WithArgs("42", 5).
		WillReturnError(errors.New("db is down"))

	_, _, err := repo.RegisterFailure(context.Background(), "42", 5)
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestLink_Upserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := regexp.MustCompile(`INSERT INTO users .* ON CONFLICT \(id\) DO UPDATE\s+SET linked_secret_id = EXCLUDED\.linked_secret_id`)
	mock.ExpectExec(q.String()).
		WithArgs("42", "eic-001", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Link(context.Background(), "42", "eic-001", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLink_UnexpectedRowsAffected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := regexp.MustCompile(`INSERT INTO users .* ON CONFLICT \(id\) DO UPDATE`)
	mock.ExpectExec(q.String()).
		WithArgs("42", "eic-001", now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.Link(context.Background(), "42", "eic-001", now); err == nil {
		t.Fatalf("expected error for unexpected rows affected")
	}
}

func TestUnban_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET is_banned = FALSE, attempts = 0`).
		WithArgs("42").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Unban(context.Background(), "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnban_UnknownUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE users SET is_banned = FALSE, attempts = 0`).
		WithArgs("nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Unban(context.Background(), "nobody")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
