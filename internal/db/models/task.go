package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusReview     TaskStatus = "REVIEW"
	StatusDone       TaskStatus = "DONE"
)

// TaskStatuses lists the board columns in display order.
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// ParseTaskStatus validates a status name.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if err := oneOf("status", status, TaskStatuses...); err != nil {
		return "", err
	}
	return status, nil
}

// Task is a kanban card, optionally grouped under a project.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tk"`
	OwnedRow

	ProjectID   *string    `bun:"project_id,type:uuid" json:"projectId,omitempty"`
	Title       string     `bun:"title,notnull" json:"title"`
	Description string     `bun:"description,notnull,default:''" json:"description"`
	Completed   bool       `bun:"completed,notnull,default:false" json:"completed"`
	CompletedAt *Date      `bun:"completed_at,type:date" json:"completedAt,omitempty"`
	DueDate     *Date      `bun:"due_date,type:date" json:"dueDate"`
	Status      TaskStatus `bun:"status,notnull" json:"status"`
	Priority    Priority   `bun:"priority,notnull" json:"priority"`
	Comments    int        `bun:"comments,notnull,default:0" json:"comments"`
	Attachments int        `bun:"attachments,notnull,default:0" json:"attachments"`
}

func (*Task) Kind() Kind { return KindTask }

func (t *Task) ApplyDefaults() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

// Validate checks required fields. The not-in-the-past rule for due dates is
// enforced by the task service, which knows whether the date changed.
func (t *Task) Validate(time.Time) error {
	if err := requireText("title", t.Title, 255); err != nil {
		return err
	}
	if t.Status == "" {
		return Invalid("status", "is required")
	}
	if err := oneOf("status", t.Status, TaskStatuses...); err != nil {
		return err
	}
	if err := oneOf("priority", t.Priority, PriorityLow, PriorityMedium, PriorityHigh); err != nil {
		return err
	}
	if t.DueDate == nil {
		return Invalid("dueDate", "is required")
	}
	if t.Comments < 0 || t.Attachments < 0 {
		return Invalid("comments", "counters cannot be negative")
	}
	return nil
}

// SetStatus moves the task to status, keeping the completion fields in step with DONE.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	t.Status = status
	if status == StatusDone {
		if !t.Completed || t.CompletedAt == nil {
			d := NewDate(now)
			t.CompletedAt = &d
		}
		t.Completed = true
		return
	}
	t.Completed = false
	t.CompletedAt = nil
}
