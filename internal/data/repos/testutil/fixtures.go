package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	analysistypes "github.com/caselens/caselens-backend/internal/domain/analysis"
	casetypes "github.com/caselens/caselens-backend/internal/domain/casefile"
)

func SeedCase(tb testing.TB, ctx context.Context, tx *gorm.DB, urn string) *casetypes.Case {
	tb.Helper()
	c := &casetypes.Case{
		URN: urn,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed case: %v", err)
	}
	return c
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, caseID int64) *casetypes.Document {
	tb.Helper()
	d := &casetypes.Document{
		CaseID:           caseID,
		OriginalFileName: "mg3.pdf",
		CMSDocCategory:   "Review",
		DocType:          "MG3",
		FileExtension:    ".pdf",
		MimeType:         "application/pdf",
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID int64) *casetypes.Version {
	tb.Helper()
	v := &casetypes.Version{
		DocumentID:          documentID,
		SourceBlobContainer: "source",
		SourceBlobName:      "exp/urn/1_1.pdf",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed version: %v", err)
	}
	return v
}

func SeedExperiment(tb testing.TB, ctx context.Context, tx *gorm.DB) *analysistypes.Experiment {
	tb.Helper()
	e := &analysistypes.Experiment{ID: uuid.NewString()}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed experiment: %v", err)
	}
	return e
}

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, experimentID string, versionID int64) *analysistypes.Section {
	tb.Helper()
	s := &analysistypes.Section{
		ExperimentID:    experimentID,
		VersionID:       versionID,
		RedactedContent: "The officer observed the suspect.",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed section: %v", err)
	}
	return s
}

func PtrInt64(v int64) *int64 { return &v }

func PtrBool(v bool) *bool { return &v }

func PtrFloat64(v float64) *float64 { return &v }
