package domain

import "time"

// Task is a single to-do item owned by a user.
type Task struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Name        string    `json:"name"`
	IsCompleted bool      `json:"is_completed"`
	Ts          time.Time `json:"ts"`
}
