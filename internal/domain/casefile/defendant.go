package casefile

import (
	"time"
)

type Defendant struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	CaseID    int64      `gorm:"column:case_id;not null;index" json:"case_id"`
	DOB       *time.Time `gorm:"column:dob" json:"dob,omitempty"`
	Gender    string     `gorm:"column:gender" json:"gender,omitempty"`
	Ethnicity string     `gorm:"column:ethnicity" json:"ethnicity,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Defendant) TableName() string { return "defendants" }
