package models

import "time"

// Priority ranks a todo item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Todo is a task owned by exactly one User (OwnerID).
// CompletedAt is non-nil if and only if IsCompleted is true.
type Todo struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description"`
	Priority    Priority   `db:"priority" json:"priority"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	OwnerID     int64      `db:"owner_id" json:"owner_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
}

// SetCompleted flips the completion flag and keeps CompletedAt consistent with it.
// Marking an already completed todo as completed keeps the original timestamp.
func (t *Todo) SetCompleted(done bool, now time.Time) {
	if done {
		if !t.IsCompleted || t.CompletedAt == nil {
			ts := now.UTC()
			t.CompletedAt = &ts
		}
	} else {
		t.CompletedAt = nil
	}
	t.IsCompleted = done
}

// TodoWithOwner is a Todo joined with its owner, used by admin listings.
type TodoWithOwner struct {
	Todo
	Owner User `json:"owner"`
}
