package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

func newFeedbackRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("feedback_repo_test_%d.db", time.Now().UnixNano()))
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

func TestGetFeedback_NotFound(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})
	f, err := GetFeedback(context.Background(), db, "d1", "section-1")
	if f != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got f=%v err=%v", f, err)
	}
}

func TestCreateFeedback_Success_SetsBothTimestamps(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})

	start := time.Now().UTC().Add(-time.Minute)
	f, err := CreateFeedback(context.Background(), db, "d1", "section-1", "like")
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if f.ID == "" || f.DocumentID != "d1" || f.ItemID != "section-1" || f.Type != "like" {
		t.Fatalf("unexpected Feedback fields: %+v", f)
	}
	if f.CreatedAt.Before(start) || f.UpdatedAt.Before(start) {
		t.Fatalf("timestamps seem unset: %v / %v", f.CreatedAt, f.UpdatedAt)
	}

	got, err := GetFeedback(context.Background(), db, "d1", "section-1")
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if got.ID != f.ID || got.Type != "like" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateFeedback_UniquePerDocumentItem(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})

	if _, err := CreateFeedback(context.Background(), db, "d1", "section-1", "like"); err != nil {
		t.Fatalf("first CreateFeedback: %v", err)
	}
	if _, err := CreateFeedback(context.Background(), db, "d1", "section-1", "dislike"); err == nil {
		t.Fatalf("expected unique constraint violation on same (document,item)")
	}
	// A different item on the same document is fine.
	if _, err := CreateFeedback(context.Background(), db, "d1", "section-2", "dislike"); err != nil {
		t.Fatalf("CreateFeedback other item: %v", err)
	}
}

func TestUpdateFeedbackType_NotFound(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})
	if err := UpdateFeedbackType(context.Background(), db, "missing", "like"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFeedbackType_SameValueStillBumpsUpdatedAt(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})

	f, err := CreateFeedback(context.Background(), db, "d1", "section-1", "like")
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	// Backdate so the bump is visible.
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := db.Model(&domain.Feedback{}).Where("id = ?", f.ID).Update("updated_at", old).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	if err := UpdateFeedbackType(context.Background(), db, f.ID, "like"); err != nil {
		t.Fatalf("UpdateFeedbackType: %v", err)
	}

	var got domain.Feedback
	if err := db.First(&got, "id = ?", f.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Type != "like" {
		t.Fatalf("type changed unexpectedly: %+v", got)
	}
	if !got.UpdatedAt.After(old) {
		t.Fatalf("expected updated_at to move forward, got %v", got.UpdatedAt)
	}
}

func TestUpdateFeedbackType_SwitchesValue(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})

	f, err := CreateFeedback(context.Background(), db, "d1", "section-1", "like")
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if err := UpdateFeedbackType(context.Background(), db, f.ID, "dislike"); err != nil {
		t.Fatalf("UpdateFeedbackType: %v", err)
	}

	got, err := GetFeedback(context.Background(), db, "d1", "section-1")
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if got.Type != "dislike" {
		t.Fatalf("expected dislike, got %+v", got)
	}
}

func TestDeleteFeedback_NotFound(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})
	if err := DeleteFeedback(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteFeedback_FreesUniqueSlot(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})

	f, err := CreateFeedback(context.Background(), db, "d1", "section-1", "like")
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if err := DeleteFeedback(context.Background(), db, f.ID); err != nil {
		t.Fatalf("DeleteFeedback: %v", err)
	}

	// The hard delete must free the (document,item) slot for a fresh row.
	if _, err := CreateFeedback(context.Background(), db, "d1", "section-1", "dislike"); err != nil {
		t.Fatalf("re-create after delete: %v", err)
	}
}

func TestListFeedbackByDocument_OptionalItemFilter(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.Feedback{})

	for _, f := range []struct{ doc, item, typ string }{
		{"d1", "section-1", "like"},
		{"d1", "section-2", "dislike"},
		{"d1", "section-3", "like"},
		{"d2", "section-1", "like"},
	} {
		if _, err := CreateFeedback(context.Background(), db, f.doc, f.item, f.typ); err != nil {
			t.Fatalf("seed %s/%s: %v", f.doc, f.item, err)
		}
	}

	all, err := ListFeedbackByDocument(context.Background(), db, "d1", nil)
	if err != nil {
		t.Fatalf("ListFeedbackByDocument: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows for d1, got %d", len(all))
	}

	some, err := ListFeedbackByDocument(context.Background(), db, "d1", []string{"section-1", "section-3"})
	if err != nil {
		t.Fatalf("ListFeedbackByDocument filtered: %v", err)
	}
	if len(some) != 2 {
		t.Fatalf("expected 2 filtered rows, got %d", len(some))
	}
	for _, f := range some {
		if f.ItemID != "section-1" && f.ItemID != "section-3" {
			t.Fatalf("filter leaked item %q", f.ItemID)
		}
	}
}

func TestListFeedbackByDocument_Error_NoTable(t *testing.T) {
	db := newFeedbackRepoDB(t /* no migrations */)
	if _, err := ListFeedbackByDocument(context.Background(), db, "d1", nil); err == nil {
		t.Fatalf("expected error when table missing")
	}
}
