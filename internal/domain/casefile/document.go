package casefile

import (
	"time"
)

// Document is one source file attached to a case. The ID is the CMS document
// id when CMS-sourced.
type Document struct {
	ID               int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	CaseID           int64  `gorm:"column:case_id;not null;index" json:"case_id"`
	OriginalFileName string `gorm:"column:original_file_name" json:"original_file_name,omitempty"`
	CMSDocCategory   string `gorm:"column:cms_doc_category" json:"cms_doc_category,omitempty"`
	DocType          string `gorm:"column:doc_type" json:"doc_type,omitempty"`
	FileExtension    string `gorm:"column:file_extension" json:"file_extension,omitempty"`
	MimeType         string `gorm:"column:mime_type" json:"mime_type,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Document) TableName() string { return "documents" }
