package analysis

import (
	"context"
	"testing"

	"github.com/caselens/caselens-backend/internal/data/repos/testutil"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
)

func TestExperimentRepoGetOrCreate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewExperimentRepo(db, testutil.Logger(t))

	first, err := repo.GetOrCreate(dbc, "exp-batch-7")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	second, err := repo.GetOrCreate(dbc, "exp-batch-7")
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("GetOrCreate ids differ: %s vs %s", first.ID, second.ID)
	}
	var n int64
	if err := tx.WithContext(ctx).Model(&types.Experiment{}).Where("id = ?", "exp-batch-7").Count(&n).Error; err != nil {
		t.Fatalf("count experiments: %v", err)
	}
	if n != 1 {
		t.Fatalf("experiment rows: want=1 got=%d", n)
	}

	generated, err := repo.GetOrCreate(dbc, "")
	if err != nil {
		t.Fatalf("GetOrCreate empty id: %v", err)
	}
	if generated.ID == "" {
		t.Fatalf("expected generated experiment id")
	}
}

func TestSectionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSectionRepo(db, testutil.Logger(t))

	exp := testutil.SeedExperiment(t, ctx, tx)
	c := testutil.SeedCase(t, ctx, tx, "01GH4444444")
	doc := testutil.SeedDocument(t, ctx, tx, c.ID)
	v := testutil.SeedVersion(t, ctx, tx, doc.ID)

	s := &types.Section{
		ExperimentID:    exp.ID,
		VersionID:       v.ID,
		DocumentID:      testutil.PtrInt64(doc.ID),
		RedactedContent: "MG3 report text",
	}
	if _, err := repo.Create(dbc, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == 0 {
		t.Fatalf("expected section id to be assigned")
	}

	if err := repo.UpdateContentPointers(dbc, s.ID, "sections", exp.ID+"/1/1.txt"); err != nil {
		t.Fatalf("UpdateContentPointers: %v", err)
	}
	got, err := repo.GetByID(dbc, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ContentBlobContainer != "sections" {
		t.Fatalf("content container: want=sections got=%s", got.ContentBlobContainer)
	}
	if got.RedactedContent != "MG3 report text" {
		t.Fatalf("redacted content clobbered: got=%q", got.RedactedContent)
	}

	if rows, err := repo.GetByExperimentID(dbc, exp.ID); err != nil || len(rows) != 1 {
		t.Fatalf("GetByExperimentID: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByVersionIDs(dbc, []int64{v.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByVersionIDs: err=%v len=%d", err, len(rows))
	}

	if err := repo.DeleteByVersionIDs(dbc, []int64{v.ID}); err != nil {
		t.Fatalf("DeleteByVersionIDs: %v", err)
	}
	if rows, err := repo.GetByVersionIDs(dbc, []int64{v.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("GetByVersionIDs after delete: err=%v len=%d", err, len(rows))
	}
}
