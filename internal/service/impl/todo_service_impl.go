package impl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"todo-api/internal/domain"
	"todo-api/internal/dto"
	"todo-api/internal/store"

	"github.com/google/uuid"
)

type TodoServiceImpl struct {
	Store *store.Store
	Now   func() time.Time
}

func NewTodoServiceImpl(st *store.Store) *TodoServiceImpl {
	return &TodoServiceImpl{Store: st, Now: time.Now}
}

func (t *TodoServiceImpl) List(ctx context.Context, ownerID domain.UserID) ([]dto.TodoResponse, error) {
	todos, err := t.Store.Todos().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TodoResponse, 0, len(todos))
	for _, todo := range todos {
		out = append(out, todoResponse(&todo))
	}
	return out, nil
}

func (t *TodoServiceImpl) Create(ctx context.Context, ownerID domain.UserID, r dto.CreateTodoRequest) (*dto.TodoResponse, error) {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrValidation)
	}

	todo := &domain.Todo{
		ID:        uuid.New(),
		UserID:    ownerID,
		Text:      text,
		CreatedAt: t.Now().UTC(),
	}
	if err := t.Store.Todos().Create(ctx, todo); err != nil {
		return nil, err
	}
	resp := todoResponse(todo)
	return &resp, nil
}

func (t *TodoServiceImpl) Delete(ctx context.Context, ownerID domain.UserID, todoID domain.TodoID) error {
	return t.Store.Todos().DeleteOwned(ctx, ownerID, todoID)
}

func todoResponse(todo *domain.Todo) dto.TodoResponse {
	return dto.TodoResponse{
		ID:        todo.ID.String(),
		Text:      todo.Text,
		CreatedAt: todo.CreatedAt,
	}
}
