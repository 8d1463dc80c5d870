package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmkov83/enerhobot/internal/common"
	"github.com/dmkov83/enerhobot/internal/server/models"
)

func TestSecretService_Get(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{},
		s: &fakeSecretsRepo{getOut: &models.Secret{ID: "secret_77", Payout: "5775.00"}},
	}
	s := NewSecretService(db, rm)

	secret, err := s.Get(context.Background(), "secret_77")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret.ID != "secret_77" || secret.Payout != "5775.00" {
		t.Fatalf("unexpected secret: %+v", secret)
	}
}

func TestSecretService_Get_NotFoundIsMatchable(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{}, s: &fakeSecretsRepo{getErr: common.ErrorNotFound}}
	s := NewSecretService(db, rm)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("wrapped error must still match ErrorNotFound, got %v", err)
	}
}
