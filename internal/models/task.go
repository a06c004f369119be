package models

import "time"

// Task field length limits, enforced on create and update.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
)

// Task represents a single task owned by a user. The JSON tags are the
// external wire names; the store uses snake_case columns.
type Task struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
