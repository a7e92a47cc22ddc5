package models

import (
	"net/url"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Canvas is a freeform board holding canvas items.
type Canvas struct {
	bun.BaseModel `bun:"table:canvases,alias:cv"`
	OwnedRow

	Title string `bun:"title,notnull" json:"title"`
}

func (*Canvas) Kind() Kind { return KindCanvas }

func (c *Canvas) ApplyDefaults() {
	if strings.TrimSpace(c.Title) == "" {
		c.Title = "Untitled canvas"
	}
}

func (c *Canvas) Validate(time.Time) error {
	return requireText("title", c.Title, 255)
}

// CanvasItem is one element placed on a canvas. Style is free-form JSON.
type CanvasItem struct {
	bun.BaseModel `bun:"table:canvas_items,alias:ci"`
	OwnedRow

	CanvasID string         `bun:"canvas_id,notnull,type:uuid" json:"canvasId"`
	Type     string         `bun:"type,notnull" json:"type"`
	Content  string         `bun:"content,notnull,default:''" json:"content"`
	X        float64        `bun:"x,notnull,default:0" json:"x"`
	Y        float64        `bun:"y,notnull,default:0" json:"y"`
	Width    float64        `bun:"width,notnull,default:0" json:"width"`
	Height   float64        `bun:"height,notnull,default:0" json:"height"`
	Style    map[string]any `bun:"style,type:jsonb" json:"style,omitempty"`
}

func (*CanvasItem) Kind() Kind { return KindCanvasItem }

func (*CanvasItem) ApplyDefaults() {}

func (i *CanvasItem) Validate(time.Time) error {
	if err := requireText("type", i.Type, 64); err != nil {
		return err
	}
	if i.CanvasID == "" {
		return Invalid("canvasId", "is required")
	}
	if i.Width < 0 || i.Height < 0 {
		return Invalid("width", "dimensions cannot be negative")
	}
	return nil
}

// Document is a titled rich-text note.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:dc"`
	OwnedRow

	Title   string `bun:"title,notnull" json:"title"`
	Content string `bun:"content,notnull,default:''" json:"content"`
}

func (*Document) Kind() Kind { return KindDocument }

func (d *Document) ApplyDefaults() {
	if strings.TrimSpace(d.Title) == "" {
		d.Title = "Untitled"
	}
}

func (d *Document) Validate(time.Time) error {
	return requireText("title", d.Title, 255)
}

// MoodBoardItem is an image pinned to the mood board, either a data URL or an http(s) URL.
type MoodBoardItem struct {
	bun.BaseModel `bun:"table:mood_board_items,alias:mb"`
	OwnedRow

	ImageURL string `bun:"image_url,notnull" json:"imageUrl"`
}

func (*MoodBoardItem) Kind() Kind { return KindMoodBoardItem }

func (*MoodBoardItem) ApplyDefaults() {}

func (m *MoodBoardItem) Validate(time.Time) error {
	if err := requireText("imageUrl", m.ImageURL, 0); err != nil {
		return err
	}
	if strings.HasPrefix(m.ImageURL, "data:image/") {
		return nil
	}
	u, err := url.Parse(m.ImageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Invalid("imageUrl", "must be a data:image URL or an http(s) URL")
	}
	return nil
}

// Idea is a short captured thought.
type Idea struct {
	bun.BaseModel `bun:"table:ideas,alias:ie"`
	OwnedRow

	Title       string `bun:"title,notnull" json:"title"`
	Description string `bun:"description,notnull,default:''" json:"description"`
}

func (*Idea) Kind() Kind { return KindIdea }

func (*Idea) ApplyDefaults() {}

func (i *Idea) Validate(time.Time) error {
	if err := requireText("title", i.Title, 255); err != nil {
		return err
	}
	return maxText("description", i.Description, 10000)
}

// ActivityLog records one user-visible action for the dashboard feed.
type ActivityLog struct {
	bun.BaseModel `bun:"table:activity_logs,alias:al"`
	OwnedRow

	Action  string `bun:"action,notnull" json:"action"`
	Details string `bun:"details,notnull,default:''" json:"details"`
}

func (*ActivityLog) Kind() Kind { return KindActivityLog }

func (*ActivityLog) ApplyDefaults() {}

func (a *ActivityLog) Validate(time.Time) error {
	if err := requireText("action", a.Action, 128); err != nil {
		return err
	}
	return maxText("details", a.Details, 1000)
}
