package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

func newRefinementRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("refinement_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func strptr(s string) *string { return &s }

func seedRefinement(t *testing.T, db *gorm.DB, id, docID, itemID string, at time.Time) {
	t.Helper()
	r := domain.Refinement{
		ID:         id,
		DocumentID: docID,
		ItemID:     itemID,
		Prompt:     strptr("make it shorter"),
		NewContent: strptr("text " + id),
		CreatedAt:  at,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed refinement %s: %v", id, err)
	}
}

func TestCreateRefinement_Error_NoTable(t *testing.T) {
	db := newRefinementRepoDB(t /* no migrations */)
	r, err := CreateRefinement(context.Background(), db, "d1", "section-1", strptr("p"), nil, nil, strptr("n"))
	if err == nil || r != nil {
		t.Fatalf("expected error creating without table, got r=%v err=%v", r, err)
	}
}

func TestCreateRefinement_Success_PersistsAllFields(t *testing.T) {
	db := newRefinementRepoDB(t, &domain.Refinement{})

	start := time.Now().UTC().Add(-time.Minute)
	r, err := CreateRefinement(context.Background(), db, "d1", "section-1",
		strptr("expand"), strptr("needs detail"), strptr("old"), strptr("new"))
	if err != nil {
		t.Fatalf("CreateRefinement: %v", err)
	}
	if r.ID == "" || r.DocumentID != "d1" || r.ItemID != "section-1" {
		t.Fatalf("unexpected Refinement fields: %+v", r)
	}
	if r.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", r.CreatedAt)
	}

	var got domain.Refinement
	if err := db.First(&got, "id = ?", r.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Prompt == nil || *got.Prompt != "expand" ||
		got.Comments == nil || *got.Comments != "needs detail" ||
		got.PreviousContent == nil || *got.PreviousContent != "old" ||
		got.NewContent == nil || *got.NewContent != "new" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestListRefinementsPage_OrderItemFilterAndPaging(t *testing.T) {
	db := newRefinementRepoDB(t, &domain.Refinement{})

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedRefinement(t, db, "r1", "d1", "section-1", t0)
	seedRefinement(t, db, "r2", "d1", "section-1", t0.Add(time.Minute))
	seedRefinement(t, db, "r3", "d1", "section-2", t0.Add(2*time.Minute))
	seedRefinement(t, db, "rx", "d2", "section-1", t0.Add(3*time.Minute))

	// Document-wide listing, newest first.
	all, err := ListRefinementsPage(context.Background(), db, "d1", "", 0, 10)
	if err != nil {
		t.Fatalf("ListRefinementsPage: %v", err)
	}
	if len(all) != 3 || all[0].ID != "r3" || all[1].ID != "r2" || all[2].ID != "r1" {
		t.Fatalf("unexpected document-wide order: %#v", all)
	}

	// Narrowed to one item.
	item, err := ListRefinementsPage(context.Background(), db, "d1", "section-1", 0, 10)
	if err != nil {
		t.Fatalf("ListRefinementsPage item: %v", err)
	}
	if len(item) != 2 || item[0].ID != "r2" || item[1].ID != "r1" {
		t.Fatalf("unexpected item order: %#v", item)
	}

	// Offset/limit slices the sorted set.
	page, err := ListRefinementsPage(context.Background(), db, "d1", "", 1, 1)
	if err != nil {
		t.Fatalf("ListRefinementsPage page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "r2" {
		t.Fatalf("expected [r2], got %#v", page)
	}
}

func TestListRefinementsPage_TieBreaksOnID(t *testing.T) {
	db := newRefinementRepoDB(t, &domain.Refinement{})

	// Same created_at; id descending must decide.
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedRefinement(t, db, "a", "d1", "section-1", at)
	seedRefinement(t, db, "b", "d1", "section-1", at)
	seedRefinement(t, db, "c", "d1", "section-1", at)

	list, err := ListRefinementsPage(context.Background(), db, "d1", "section-1", 0, 10)
	if err != nil {
		t.Fatalf("ListRefinementsPage: %v", err)
	}
	if len(list) != 3 || list[0].ID != "c" || list[1].ID != "b" || list[2].ID != "a" {
		t.Fatalf("expected id tie-break c,b,a got %#v", list)
	}
}

func TestCountRefinements_WithAndWithoutItem(t *testing.T) {
	db := newRefinementRepoDB(t, &domain.Refinement{})

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedRefinement(t, db, "r1", "d1", "section-1", t0)
	seedRefinement(t, db, "r2", "d1", "section-1", t0.Add(time.Minute))
	seedRefinement(t, db, "r3", "d1", "section-2", t0.Add(2*time.Minute))

	all, err := CountRefinements(context.Background(), db, "d1", "")
	if err != nil {
		t.Fatalf("CountRefinements: %v", err)
	}
	if all != 3 {
		t.Fatalf("expected 3, got %d", all)
	}

	one, err := CountRefinements(context.Background(), db, "d1", "section-2")
	if err != nil {
		t.Fatalf("CountRefinements item: %v", err)
	}
	if one != 1 {
		t.Fatalf("expected 1, got %d", one)
	}
}

func TestCountRefinements_Error_NoTable(t *testing.T) {
	db := newRefinementRepoDB(t /* no migrations */)
	if _, err := CountRefinements(context.Background(), db, "d1", ""); err == nil {
		t.Fatalf("expected error when table missing")
	}
}

func TestPruneRefinements_KeepsNewestThree(t *testing.T) {
	db := newRefinementRepoDB(t, &domain.Refinement{})

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		seedRefinement(t, db, fmt.Sprintf("r%d", i), "d1", "section-1", t0.Add(time.Duration(i)*time.Minute))
	}
	// A different item and a different document must be untouched.
	seedRefinement(t, db, "other-item", "d1", "section-2", t0)
	seedRefinement(t, db, "other-doc", "d2", "section-1", t0)

	n, err := PruneRefinements(context.Background(), db, "d1", "section-1", 3)
	if err != nil {
		t.Fatalf("PruneRefinements: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}

	rest, err := ListRefinementsPage(context.Background(), db, "d1", "section-1", 0, 10)
	if err != nil {
		t.Fatalf("ListRefinementsPage: %v", err)
	}
	if len(rest) != 3 || rest[0].ID != "r5" || rest[1].ID != "r4" || rest[2].ID != "r3" {
		t.Fatalf("expected r5,r4,r3 to survive, got %#v", rest)
	}

	var otherItem, otherDoc int64
	if err := db.Model(&domain.Refinement{}).Where("item_id = ?", "section-2").Count(&otherItem).Error; err != nil {
		t.Fatalf("count other item: %v", err)
	}
	if err := db.Model(&domain.Refinement{}).Where("document_id = ?", "d2").Count(&otherDoc).Error; err != nil {
		t.Fatalf("count other doc: %v", err)
	}
	if otherItem != 1 || otherDoc != 1 {
		t.Fatalf("prune leaked outside its (document,item): item=%d doc=%d", otherItem, otherDoc)
	}
}

func TestPruneRefinements_NoopUnderLimit(t *testing.T) {
	db := newRefinementRepoDB(t, &domain.Refinement{})

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedRefinement(t, db, "r1", "d1", "section-1", t0)
	seedRefinement(t, db, "r2", "d1", "section-1", t0.Add(time.Minute))

	n, err := PruneRefinements(context.Background(), db, "d1", "section-1", 3)
	if err != nil {
		t.Fatalf("PruneRefinements: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 deleted, got %d", n)
	}
}

func TestPruneRefinements_NegativeKeepDeletesAll(t *testing.T) {
	db := newRefinementRepoDB(t, &domain.Refinement{})

	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedRefinement(t, db, "r1", "d1", "section-1", t0)
	seedRefinement(t, db, "r2", "d1", "section-1", t0.Add(time.Minute))

	n, err := PruneRefinements(context.Background(), db, "d1", "section-1", -1)
	if err != nil {
		t.Fatalf("PruneRefinements: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
}
