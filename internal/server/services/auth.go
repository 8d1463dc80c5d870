// Package services contains server-side business logic. This file
// implements AuthService, the check-and-claim engine that links a chat
// user to exactly one imported financial record and bans brute-force
// guessing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmkov83/enerhobot/internal/common"
	"github.com/dmkov83/enerhobot/internal/dbx"
	"github.com/dmkov83/enerhobot/internal/logging"
	"github.com/dmkov83/enerhobot/internal/server/config"
	"github.com/dmkov83/enerhobot/internal/server/models"
	"github.com/dmkov83/enerhobot/internal/server/repositories/repomanager"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// BanMessage is the terminal reply for banned users. The state machine
// repeats it verbatim for every further message.
const BanMessage = "🚫 Suspicious activity detected. Sign-in has been blocked. Please contact support."

// The failure message deliberately does not reveal whether the contract
// number, the account number, or the claim state was at fault.
const invalidCredentialsMessage = "❌ The details are invalid or already in use by another user."

const alreadyLinkedMessage = "✅ You are already authorized and cannot change your details."

const (
	claimRetryAttempts = 3
	claimRetryDelay    = 50 * time.Millisecond
)

// AuthResult is the outcome of a CheckAndLink call. Mismatches and bans
// are results, not errors; an error return means the store misbehaved
// and nothing was counted against the user.
type AuthResult struct {
	Success        bool
	AlreadyLinked  bool
	IsBanned       bool
	Message        string
	LinkedSecretID string
}

// AuthService performs the credential check-and-claim:
// - CheckAndLink: validate a contract/account pair and claim the record
// - LinkedSecretID: restore lookup for rehydrated sessions
// - UserStatus / Unban: admin operations
type AuthService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	logger       logging.Logger
	banThreshold int
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *AuthService {
	return &AuthService{
		db:           db,
		repomanager:  m,
		logger:       l.With("module", "auth_service"),
		banThreshold: cfg.BanThreshold,
	}
}

func (s *AuthService) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx, s.logger)
}

// CheckAndLink validates the credential pair for userID and, when it
// matches an unclaimed record (or one already claimed by this user),
// atomically claims it. Failed checks increment the per-user attempt
// counter; reaching the ban threshold bans permanently.
func (s *AuthService) CheckAndLink(ctx context.Context, userID, contract, account string) (*AuthResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("check and link: empty user id")
	}

	user, err := s.repomanager.Users(s.db).Get(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user != nil {
		if user.IsBanned {
			return &AuthResult{Success: false, IsBanned: true, Message: BanMessage}, nil
		}
		if user.LinkedSecretID != "" {
			// Idempotent short-circuit: no credential re-validation, no
			// secrets read, for an already-linked user.
			return &AuthResult{
				Success:        true,
				AlreadyLinked:  true,
				Message:        alreadyLinkedMessage,
				LinkedSecretID: user.LinkedSecretID,
			}, nil
		}
	}

	secret, err := s.findClaimable(ctx, userID, contract, account)
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return s.registerFailure(ctx, userID)
	}

	if err := s.claim(ctx, userID, secret.ID); err != nil {
		if errors.Is(err, common.ErrClaimConflict) {
			// Another user won the record between the lookup and the
			// commit. Same outcome as a plain mismatch.
			return s.registerFailure(ctx, userID)
		}
		return nil, fmt.Errorf("error claiming secret: %w", err)
	}

	// The link is committed; a payload re-read failure only costs the
	// personalized greeting.
	message := "✅ Authorization successful!"
	if data, err := s.repomanager.Secrets(s.db).Get(ctx, secret.ID); err != nil {
		s.log(ctx).Warn(ctx, "re-reading linked secret failed", "secret_id", secret.ID, "error", err.Error())
	} else {
		message = fmt.Sprintf("✅ Authorization successful! Welcome, %s!", data.Counterparty)
	}

	return &AuthResult{Success: true, Message: message, LinkedSecretID: secret.ID}, nil
}

// LinkedSecretID returns the id of the secret linked to userID, or ""
// when the user is unknown or unlinked. Used to rehydrate sessions.
func (s *AuthService) LinkedSecretID(ctx context.Context, userID string) (string, error) {
	user, err := s.repomanager.Users(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}
	return user.LinkedSecretID, nil
}

// UserStatus returns the stored account state for the admin API.
func (s *AuthService) UserStatus(ctx context.Context, userID string) (*models.UserAccount, error) {
	return s.repomanager.Users(s.db).Get(ctx, userID)
}

// Unban lifts a permanent ban and resets the attempt counter. An existing
// record link is preserved.
func (s *AuthService) Unban(ctx context.Context, userID string) error {
	if err := s.repomanager.Users(s.db).Unban(ctx, userID); err != nil {
		return err
	}
	s.log(ctx).Info(ctx, "user unbanned", "user_id", userID)
	return nil
}

// --- helpers below ---

// findClaimable resolves the credential pair to a secret this user may
// claim. Missing credentials, no match, a duplicated pair and a record
// held by another user all yield (nil, nil); only store failures are
// returned as errors.
func (s *AuthService) findClaimable(ctx context.Context, userID, contract, account string) (*models.Secret, error) {
	if contract == "" || account == "" {
		return nil, nil
	}

	secret, err := s.repomanager.Secrets(s.db).FindByCredentials(ctx, contract, account)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		return nil, nil
	case errors.Is(err, common.ErrAmbiguousMatch):
		// Duplicated source data. Rejected, never resolved by picking one.
		s.log(ctx).Warn(ctx, "duplicate credential pair in secrets table")
		return nil, nil
	default:
		return nil, fmt.Errorf("error searching secrets: %w", err)
	}

	if secret.Claimed() && secret.ClaimedBy != userID {
		return nil, nil
	}
	return secret, nil
}

func (s *AuthService) registerFailure(ctx context.Context, userID string) (*AuthResult, error) {
	attempts, banned, err := s.repomanager.Users(s.db).RegisterFailure(ctx, userID, s.banThreshold)
	if err != nil {
		return nil, fmt.Errorf("error registering failed attempt: %w", err)
	}
	if banned {
		s.log(ctx).Warn(ctx, "user banned", "user_id", userID, "attempts", attempts)
		return &AuthResult{Success: false, IsBanned: true, Message: BanMessage}, nil
	}
	return &AuthResult{Success: false, Message: invalidCredentialsMessage}, nil
}

// claim runs the two claim writes in one transaction: the conditional
// secrets update re-checks ownership inside the same transaction that
// sets it, and the user link commits together with it or not at all.
// Serialization/deadlock failures are retried a bounded number of times.
func (s *AuthService) claim(ctx context.Context, userID, secretID string) error {
	backoff := retry.WithMaxRetries(claimRetryAttempts, retry.NewConstant(claimRetryDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		now := time.Now()
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := s.repomanager.Secrets(tx).Claim(ctx, secretID, userID, now); err != nil {
				return err
			}
			return s.repomanager.Users(tx).Link(ctx, userID, secretID, now)
		})
		if isSerializationFailure(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
