package models

import "time"

// Todo status constants.
const (
	TodoStatusOpen     = "open"
	TodoStatusComplete = "complete"
)

// Priority levels, 1 (highest) to 5 (lowest).
const (
	PriorityHigh       = 1
	PriorityMediumHigh = 2
	PriorityMedium     = 3
	PriorityLow        = 5
)

// Todo is a to-do item produced by the phrase parser and kept in the SQL store.
type Todo struct {
	ID           string     `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	OriginalText string     `json:"original_text" db:"original_text"`
	Status       string     `json:"status" db:"status"`
	Priority     int        `json:"priority" db:"priority"`
	DueDate      *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// IsOverdue reports whether an open todo's due date has passed.
func (t Todo) IsOverdue(now time.Time) bool {
	return t.Status == TodoStatusOpen && t.DueDate != nil && t.DueDate.Before(now)
}
