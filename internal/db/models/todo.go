package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TodoCategory string

const (
	CategoryWork     TodoCategory = "WORK"
	CategoryPersonal TodoCategory = "PERSONAL"
	CategoryLearning TodoCategory = "LEARNING"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Todo is a checklist entry.
type Todo struct {
	bun.BaseModel `bun:"table:todos,alias:td"`
	OwnedRow

	Title     string       `bun:"title,notnull" json:"title"`
	Completed bool         `bun:"completed,notnull,default:false" json:"completed"`
	DueDate   *Date        `bun:"due_date,type:date" json:"dueDate,omitempty"`
	Category  TodoCategory `bun:"category,notnull" json:"category"`
	Priority  Priority     `bun:"priority,notnull" json:"priority"`
}

func (*Todo) Kind() Kind { return KindTodo }

func (t *Todo) ApplyDefaults() {
	if t.Category == "" {
		t.Category = CategoryWork
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

func (t *Todo) Validate(time.Time) error {
	if err := requireText("title", t.Title, 255); err != nil {
		return err
	}
	if err := oneOf("category", t.Category, CategoryWork, CategoryPersonal, CategoryLearning); err != nil {
		return err
	}
	return oneOf("priority", t.Priority, PriorityHigh, PriorityMedium, PriorityLow)
}
