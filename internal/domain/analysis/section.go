package analysis

import (
	"time"
)

// Section is one extracted narrative unit of a document version, the unit of
// analysis. Content blob pointers are back-filled after the blob write
// succeeds, so a row can legitimately exist with empty pointers.
type Section struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ExperimentID string `gorm:"column:experiment_id;type:varchar(36);not null;index" json:"experiment_id"`
	VersionID    int64  `gorm:"column:version_id;not null;index" json:"version_id"`
	DocumentID   *int64 `gorm:"column:document_id;index" json:"document_id,omitempty"`

	ContentBlobContainer string `gorm:"column:content_blob_container" json:"content_blob_container,omitempty"`
	ContentBlobName      string `gorm:"column:content_blob_name" json:"content_blob_name,omitempty"`
	RedactedContent      string `gorm:"column:redacted_content;type:text" json:"redacted_content,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Section) TableName() string { return "sections" }
