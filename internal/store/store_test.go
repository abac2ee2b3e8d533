package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"todo-api/internal/domain"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Todo{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return New(db)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := setupTestStore(t)
	id := uuid.New()
	boom := errors.New("boom")

	err := st.WithTx(context.Background(), func(tx *Store) error {
		if err := tx.Users().Create(context.Background(), &domain.User{
			ID: id, Name: "Amy", Email: "amy@x.com", PasswordHash: "h",
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error to surface, got %v", err)
	}

	if _, err := st.Users().GetByID(context.Background(), id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("write must be rolled back, got %v", err)
	}
}

func TestWithTxCommits(t *testing.T) {
	st := setupTestStore(t)
	id := uuid.New()

	err := st.WithTx(context.Background(), func(tx *Store) error {
		return tx.Users().Create(context.Background(), &domain.User{
			ID: id, Name: "Amy", Email: "amy@x.com", PasswordHash: "h",
		})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	user, err := st.Users().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Email != "amy@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
