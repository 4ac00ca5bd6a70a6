package casefile

import (
	"time"

	"gorm.io/datatypes"
)

// Version is one retrieved rendition of a Document. Blob pointers are filled
// in as processing stages complete: source pointers at creation, parsed
// pointers after the layout parse succeeds.
type Version struct {
	ID                  int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID          int64  `gorm:"column:document_id;not null;index" json:"document_id"`
	SourceBlobContainer string `gorm:"column:source_blob_container" json:"source_blob_container,omitempty"`
	SourceBlobName      string `gorm:"column:source_blob_name" json:"source_blob_name,omitempty"`
	ParsedBlobContainer string `gorm:"column:parsed_blob_container" json:"parsed_blob_container,omitempty"`
	ParsedBlobName      string `gorm:"column:parsed_blob_name" json:"parsed_blob_name,omitempty"`

	// Parser summary (page count, provider) kept queryable next to the pointers.
	ParseMeta datatypes.JSON `gorm:"column:parse_meta;type:jsonb" json:"parse_meta,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Version) TableName() string { return "versions" }
