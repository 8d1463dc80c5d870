package users

import (
	"context"
	"time"

	"github.com/dmkov83/enerhobot/internal/server/models"
)

// Repository is the persistence contract for chat user accounts.
type Repository interface {
	// Get returns the account for id, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.UserAccount, error)

	// RegisterFailure atomically increments the failed-attempt counter,
	// creating the row if needed, and flips is_banned once the new count
	// reaches threshold. It returns the stored counter and ban flag.
	RegisterFailure(ctx context.Context, id string, threshold int) (int, bool, error)

	// Link binds the account to a secret, resets the attempt counter and
	// stamps registered_at on first link. Creates the row if needed.
	Link(ctx context.Context, id, secretID string, now time.Time) error

	// Unban clears the ban flag and attempt counter. The linked secret,
	// if any, is left untouched. Returns common.ErrorNotFound for an
	// unknown account.
	Unban(ctx context.Context, id string) error
}
