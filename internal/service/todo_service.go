package service

import (
	"context"

	"todo-api/internal/domain"
	"todo-api/internal/dto"
)

type TodoService interface {
	List(ctx context.Context, ownerID domain.UserID) ([]dto.TodoResponse, error)
	Create(ctx context.Context, ownerID domain.UserID, r dto.CreateTodoRequest) (*dto.TodoResponse, error)
	Delete(ctx context.Context, ownerID domain.UserID, todoID domain.TodoID) error
}
