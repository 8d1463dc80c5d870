package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmkov83/enerhobot/internal/server/models"
	"github.com/dmkov83/enerhobot/internal/server/repositories/repomanager"
)

// SecretService reads financial record payloads for the menu actions.
type SecretService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewSecretService constructs a SecretService over the shared pool.
func NewSecretService(db *sql.DB, m repomanager.RepositoryManager) *SecretService {
	return &SecretService{db: db, repomanager: m}
}

// Get returns the secret with the given id; common.ErrorNotFound when
// the id is unknown.
func (s *SecretService) Get(ctx context.Context, id string) (*models.Secret, error) {
	secret, err := s.repomanager.Secrets(s.db).Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading secret: %w", err)
	}
	return secret, nil
}
