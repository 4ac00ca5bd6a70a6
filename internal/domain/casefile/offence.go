package casefile

import (
	"time"
)

type Offence struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	DefendantID int64  `gorm:"column:defendant_id;not null;index" json:"defendant_id"`
	Code        string `gorm:"column:code" json:"code,omitempty"`
	Type        string `gorm:"column:type" json:"type,omitempty"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
	Active      string `gorm:"column:active" json:"active,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Offence) TableName() string { return "offences" }
