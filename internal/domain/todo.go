package domain

import "time"

// Todo belongs to exactly one user; ownership never transfers.
type Todo struct {
	ID        TodoID    `gorm:"type:uuid;primaryKey"`
	UserID    UserID    `gorm:"type:uuid;index;not null"`
	Text      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Todo) TableName() string { return "todos" }
