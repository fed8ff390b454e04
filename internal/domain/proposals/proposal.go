package proposals

import (
	"time"
)

// Proposal is an approved observing program that owns time allocations.
// Proposal IDs are human-readable codes assigned by the TAC process, so the
// primary key is the code itself rather than a uuid.
type Proposal struct {
	ID     string `gorm:"primaryKey;column:id" json:"id"`
	Title  string `gorm:"column:title;not null" json:"title"`
	Active bool   `gorm:"column:active;not null;default:true;index" json:"active"`

	TACPriority int `gorm:"column:tac_priority;not null;default:0" json:"tac_priority"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Proposal) TableName() string { return "proposal" }

// Semester is an observing semester, e.g. "2026A".
type Semester struct {
	ID    string    `gorm:"primaryKey;column:id" json:"id"`
	Start time.Time `gorm:"column:start;not null;index" json:"start"`
	End   time.Time `gorm:"column:end;not null;index" json:"end"`
}

func (Semester) TableName() string { return "semester" }

// Contains reports whether t falls within the semester.
func (s *Semester) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}
