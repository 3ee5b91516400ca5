package models

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every accepted status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the accepted statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label is the human readable form used by the web views.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskInput holds the fields supplied when creating a task.
type TaskInput struct {
	Title       string `json:"title" binding:"required,notblank"`
	Description string `json:"description"`
	Status      Status `json:"status" binding:"omitempty,taskstatus"`
}

// TaskPatch holds a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string `json:"title,omitempty" binding:"omitnil,notblank"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty" binding:"omitnil,taskstatus"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}
