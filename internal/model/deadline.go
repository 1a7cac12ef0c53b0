package model

import "time"

// Deadline names. Each gates writes to one score field.
const (
	DeadlineDiscussion = "discussion"
	DeadlineTakeaway   = "takeaway"
	DeadlineCat1       = "cat1"
	DeadlineCat2       = "cat2"
)

// DeadlineNames every known deadline
var DeadlineNames = []string{DeadlineDiscussion, DeadlineTakeaway, DeadlineCat1, DeadlineCat2}

// Deadline last moment a score field may be written (deadlines)
type Deadline struct {
	Name     string    `gorm:"type:varchar(20);primaryKey" json:"name"`
	Deadline time.Time `gorm:"not null"                    json:"deadline"`
	BaseModel
}

// IsOpen reports whether writes are still allowed at now
func (d *Deadline) IsOpen(now time.Time) bool {
	return !now.After(d.Deadline)
}

// TableName table name
func (Deadline) TableName() string { return "deadlines" }
