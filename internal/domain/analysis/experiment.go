package analysis

import (
	"time"
)

// Experiment groups one processing/analysis run. The id is caller-supplied
// or generated as a uuid string; rows are never mutated after creation.
type Experiment struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Experiment) TableName() string { return "experiments" }
