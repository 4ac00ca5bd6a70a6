package casefile

import (
	"context"
	"errors"
	"testing"

	"github.com/caselens/caselens-backend/internal/data/dberr"
	"github.com/caselens/caselens-backend/internal/data/repos/testutil"
	types "github.com/caselens/caselens-backend/internal/domain/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
)

func TestCaseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCaseRepo(db, testutil.Logger(t))

	c := &types.Case{ID: 9001, URN: "01AB1111111"}
	if _, err := repo.Upsert(dbc, c); err != nil {
		t.Fatalf("Upsert create: %v", err)
	}

	got, err := repo.GetByURN(dbc, "01AB1111111")
	if err != nil {
		t.Fatalf("GetByURN: %v", err)
	}
	if got.ID != 9001 {
		t.Fatalf("GetByURN id: want=9001 got=%d", got.ID)
	}

	// Same CMS id again updates in place rather than duplicating.
	upd := &types.Case{ID: 9001, URN: "01AB1111111", Finalised: testutil.PtrBool(true)}
	if _, err := repo.Upsert(dbc, upd); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	var n int64
	if err := tx.WithContext(ctx).Model(&types.Case{}).Where("urn = ?", "01AB1111111").Count(&n).Error; err != nil {
		t.Fatalf("count cases: %v", err)
	}
	if n != 1 {
		t.Fatalf("case rows after re-upsert: want=1 got=%d", n)
	}
	got, err = repo.GetByID(dbc, 9001)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Finalised == nil || !*got.Finalised {
		t.Fatalf("Finalised after update: want=true got=%v", got.Finalised)
	}

	if err := repo.DeleteByIDs(dbc, []int64{9001}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if _, err := repo.GetByID(dbc, 9001); !errors.Is(err, dberr.ErrNotFound) {
		t.Fatalf("GetByID after delete: want ErrNotFound got=%v", err)
	}
}
