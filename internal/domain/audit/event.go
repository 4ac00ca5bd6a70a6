package audit

import (
	"time"

	"gorm.io/datatypes"
)

// Event is the append-only audit side channel. It records who did what to
// which object, correlated across one trigger invocation. Never part of the
// processing state machine.
type Event struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Source        string         `gorm:"column:source" json:"source,omitempty"`
	EventType     string         `gorm:"column:event_type" json:"event_type,omitempty"`
	ActorID       string         `gorm:"column:actor_id" json:"actor_id,omitempty"`
	Action        string         `gorm:"column:action" json:"action,omitempty"`
	ObjectType    string         `gorm:"column:object_type" json:"object_type,omitempty"`
	ObjectID      string         `gorm:"column:object_id" json:"object_id,omitempty"`
	CorrelationID string         `gorm:"column:correlation_id;index" json:"correlation_id,omitempty"`
	Payload       datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Event) TableName() string { return "events" }
