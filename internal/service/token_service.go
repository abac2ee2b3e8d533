package service

import (
	"todo-api/internal/domain"
)

type TokenService interface {
	Issue(user *domain.User) (string, error)
	Verify(raw string) (domain.UserID, error)
}
