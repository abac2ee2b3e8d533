package store

import (
	"context"

	"todo-api/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TodoStore struct{ db *gorm.DB }

func (s *Store) Todos() *TodoStore { return &TodoStore{db: s.DB} }

func (t *TodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}
	return t.db.WithContext(ctx).Create(todo).Error
}

func (t *TodoStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := t.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// DeleteOwned removes the todo only when it belongs to ownerID; a cross-user
// id yields domain.ErrNotFound rather than touching another user's row.
func (t *TodoStore) DeleteOwned(ctx context.Context, ownerID, todoID uuid.UUID) error {
	res := t.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", todoID, ownerID).
		Delete(&domain.Todo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
