package casefile

import (
	"time"
)

type Charge struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	DefendantID   int64      `gorm:"column:defendant_id;not null;index" json:"defendant_id"`
	Code          string     `gorm:"column:code" json:"code,omitempty"`
	Description   string     `gorm:"column:description;type:text" json:"description,omitempty"`
	LatestVerdict *time.Time `gorm:"column:latest_verdict" json:"latest_verdict,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Charge) TableName() string { return "charges" }
