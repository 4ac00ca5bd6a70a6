package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	"github.com/caselens/caselens-backend/internal/data/repos/testutil"
	types "github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
)

func TestPromptTemplateRepoGetLatestBy(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPromptTemplateRepo(db, testutil.Logger(t))

	for _, version := range []string{"1.0", "2.0", "1.5"} {
		row := &types.PromptTemplate{
			Template: "critic v" + version,
			Agent:    "critic",
			Theme:    "theme1",
			Pattern:  "emotional",
			Version:  version,
		}
		if _, err := repo.Create(dbc, row); err != nil {
			t.Fatalf("Create %s: %v", version, err)
		}
	}
	// Branch agents are seeded without theme/pattern.
	witness := &types.PromptTemplate{Template: "is witness?", Agent: "is_witness", Version: "1.0"}
	if _, err := repo.Create(dbc, witness); err != nil {
		t.Fatalf("Create is_witness: %v", err)
	}

	got, err := repo.GetLatestBy(dbc, "critic", "theme1", "emotional")
	if err != nil {
		t.Fatalf("GetLatestBy: %v", err)
	}
	if got.Version != "2.0" {
		t.Fatalf("latest version: want=2.0 got=%s", got.Version)
	}

	got, err = repo.GetLatestBy(dbc, "is_witness", "", "")
	if err != nil {
		t.Fatalf("GetLatestBy is_witness: %v", err)
	}
	if got.Template != "is witness?" {
		t.Fatalf("is_witness template: got=%q", got.Template)
	}

	// The keyed lookup must not fall back across themes.
	if _, err := repo.GetLatestBy(dbc, "critic", "theme2", "emotional"); !errors.Is(err, dberr.ErrNotFound) {
		t.Fatalf("GetLatestBy missing key: want ErrNotFound got=%v", err)
	}
}

func TestPromptTemplateRepoUpsertByKey(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPromptTemplateRepo(db, testutil.Logger(t))

	row := &types.PromptTemplate{Template: "old body", Name: "critic", Agent: "critic", Theme: "theme2", Pattern: "risk", Version: "1.0"}
	if _, err := repo.UpsertByKey(dbc, row); err != nil {
		t.Fatalf("UpsertByKey create: %v", err)
	}

	again := &types.PromptTemplate{Template: "new body", Name: "critic", Agent: "critic", Theme: "theme2", Pattern: "risk", Version: "1.0"}
	if _, err := repo.UpsertByKey(dbc, again); err != nil {
		t.Fatalf("UpsertByKey update: %v", err)
	}
	if again.ID != row.ID {
		t.Fatalf("UpsertByKey ids differ: %d vs %d", again.ID, row.ID)
	}

	var n int64
	if err := tx.WithContext(ctx).Model(&types.PromptTemplate{}).
		Where("agent = ? AND theme = ? AND pattern = ? AND version = ?", "critic", "theme2", "risk", "1.0").
		Count(&n).Error; err != nil {
		t.Fatalf("count templates: %v", err)
	}
	if n != 1 {
		t.Fatalf("template rows: want=1 got=%d", n)
	}

	got, err := repo.GetLatestBy(dbc, "critic", "theme2", "risk")
	if err != nil {
		t.Fatalf("GetLatestBy: %v", err)
	}
	if got.Template != "new body" {
		t.Fatalf("template body: want=new body got=%q", got.Template)
	}
}
