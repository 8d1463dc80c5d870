package secrets

import (
	"context"
	"time"

	"github.com/dmkov83/enerhobot/internal/server/models"
)

// Repository is the persistence contract for financial records.
type Repository interface {
	// Get returns the secret with the given id, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Secret, error)

	// FindByCredentials looks up the secret matching the contract/account
	// pair exactly. Returns common.ErrorNotFound when nothing matches and
	// common.ErrAmbiguousMatch when more than one row does.
	FindByCredentials(ctx context.Context, contract, account string) (*models.Secret, error)

	// Claim marks the secret as claimed by userID unless another user
	// already holds it, in which case common.ErrClaimConflict is
	// returned. Re-claiming by the same user succeeds and keeps the
	// original claimed_at.
	Claim(ctx context.Context, id, userID string, now time.Time) error
}
