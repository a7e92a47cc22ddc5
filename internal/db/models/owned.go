package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind names an owned resource type.
type Kind string

const (
	KindCanvas        Kind = "Canvas"
	KindCanvasItem    Kind = "CanvasItem"
	KindDocument      Kind = "Document"
	KindMoodBoardItem Kind = "MoodBoardItem"
	KindTodo          Kind = "Todo"
	KindTask          Kind = "Task"
	KindProject       Kind = "Project"
	KindActivityLog   Kind = "ActivityLog"
	KindIdea          Kind = "Idea"
)

// ErrInvalid is the sentinel wrapped by every field validation failure.
var ErrInvalid = errors.New("validation failed")

// FieldError describes one invalid field. It unwraps to ErrInvalid.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

// Invalid builds a FieldError.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// OwnedRow carries the columns every owned resource shares. UserID is set
// once at creation and never reassigned.
type OwnedRow struct {
	ID        string    `bun:"id,pk,type:uuid" json:"id"`
	UserID    string    `bun:"user_id,notnull,type:uuid" json:"userId"`
	Version   int64     `bun:"version,notnull,default:1" json:"version"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Row exposes the shared columns to generic code.
func (r *OwnedRow) Row() *OwnedRow { return r }

// OwnerID returns the owning user's id.
func (r *OwnedRow) OwnerID() string { return r.UserID }

// Owned is implemented by pointers to every owned resource model.
type Owned interface {
	Row() *OwnedRow
	OwnerID() string
	Kind() Kind
	// ApplyDefaults fills unset optional fields before validation on create.
	ApplyDefaults()
	// Validate checks field constraints. now is the reference instant for date rules.
	Validate(now time.Time) error
}

func requireText(field, value string, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return Invalid(field, "is required")
	}
	if max > 0 && len(value) > max {
		return Invalid(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

func maxText(field, value string, max int) error {
	if len(value) > max {
		return Invalid(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

func oneOf[E ~string](field string, value E, allowed ...E) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return Invalid(field, "must be one of "+strings.Join(names, ", "))
}
