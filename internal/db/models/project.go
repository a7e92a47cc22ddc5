package models

import (
	"regexp"
	"time"

	"github.com/uptrace/bun"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Project groups tasks on the timeline.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:pj"`
	OwnedRow

	Name  string `bun:"name,notnull" json:"name"`
	Color string `bun:"color,notnull,default:''" json:"color"`
}

func (*Project) Kind() Kind { return KindProject }

func (p *Project) ApplyDefaults() {
	if p.Color == "" {
		p.Color = "#3b82f6"
	}
}

func (p *Project) Validate(time.Time) error {
	if err := requireText("name", p.Name, 255); err != nil {
		return err
	}
	if p.Color != "" && !hexColor.MatchString(p.Color) {
		return Invalid("color", "must be a hex color like #aabbcc")
	}
	return nil
}
