package dto

import "time"

type CreateTodoRequest struct {
	Text string `json:"text"`
}

type TodoResponse struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
