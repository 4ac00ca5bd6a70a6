package casefile

import (
	"time"
)

// Case is one legal matter pulled from the case-management system. The ID is
// the CMS-side numeric case id when CMS-sourced, which is what makes
// re-ingestion an update instead of a duplicate.
type Case struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	URN              string     `gorm:"column:urn;index" json:"urn"`
	Finalised        *bool      `gorm:"column:finalised" json:"finalised,omitempty"`
	AreaID           *int64     `gorm:"column:area_id" json:"area_id,omitempty"`
	UnitID           *int64     `gorm:"column:unit_id" json:"unit_id,omitempty"`
	RegistrationDate *time.Time `gorm:"column:registration_date" json:"registration_date,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Case) TableName() string { return "cases" }
