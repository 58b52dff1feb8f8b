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

func newDocumentRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("document_repo_test_%d.db", time.Now().UnixNano()))
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

func seedDocumentProject(t *testing.T, db *gorm.DB, projectID string) {
	t.Helper()
	if err := db.Create(&domain.Project{ID: projectID, UserID: "u1", Kind: "word", Title: "t", MainTopic: "m"}).Error; err != nil {
		t.Fatalf("seed project %s: %v", projectID, err)
	}
}

func TestCreateDocument_Error_NoTable(t *testing.T) {
	db := newDocumentRepoDB(t /* no migrations */)
	d, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`))
	if err == nil || d != nil {
		t.Fatalf("expected error creating without table, got doc=%v err=%v", d, err)
	}
}

func TestCreateDocument_Success_StartsAtVersionOne(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	seedDocumentProject(t, db, "p1")

	structure := []byte(`{"sections":[{"id":"section-1","title":"Intro","order":0}]}`)
	d, err := CreateDocument(context.Background(), db, "p1", structure)
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if d.ID == "" || d.ProjectID != "p1" || d.Version != 1 {
		t.Fatalf("unexpected Document fields: %+v", d)
	}
	if string(d.Content) != "{}" {
		t.Fatalf("expected empty content map, got %s", d.Content)
	}

	var got domain.Document
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("load created document: %v", err)
	}
	if got.Version != 1 || string(got.Structure) != string(structure) {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateDocument_UniquePerProject(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	seedDocumentProject(t, db, "p1")

	if _, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`)); err != nil {
		t.Fatalf("first CreateDocument: %v", err)
	}
	if _, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`)); err == nil {
		t.Fatalf("expected unique constraint violation for second document on same project")
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	d, err := GetDocument(context.Background(), db, "missing")
	if d != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got doc=%v err=%v", d, err)
	}
}

func TestGetDocument_Success(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	seedDocumentProject(t, db, "p1")

	created, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	got, err := GetDocument(context.Background(), db, created.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.ID != created.ID || got.ProjectID != "p1" || got.Version != 1 {
		t.Fatalf("unexpected document: %+v", got)
	}
}

func TestGetDocumentByProject_NotFound(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	d, err := GetDocumentByProject(context.Background(), db, "p1")
	if d != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got doc=%v err=%v", d, err)
	}
}

func TestGetDocumentByProject_Success(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	seedDocumentProject(t, db, "p1")

	created, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	got, err := GetDocumentByProject(context.Background(), db, "p1")
	if err != nil {
		t.Fatalf("GetDocumentByProject: %v", err)
	}
	if got.ID != created.ID || got.Version != 1 {
		t.Fatalf("unexpected document: %+v", got)
	}
}

func TestUpdateDocumentStructure_BumpsVersion(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	seedDocumentProject(t, db, "p1")

	d, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	next := []byte(`{"sections":[{"id":"section-1","title":"Intro","order":0}]}`)
	if err := UpdateDocumentStructure(context.Background(), db, d.ID, next, 1); err != nil {
		t.Fatalf("UpdateDocumentStructure: %v", err)
	}

	var got domain.Document
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("expected version 2, got %d", got.Version)
	}
	if string(got.Structure) != string(next) {
		t.Fatalf("structure not replaced: %s", got.Structure)
	}
	// Content is untouched by a structure write.
	if string(got.Content) != "{}" {
		t.Fatalf("content changed unexpectedly: %s", got.Content)
	}
}

func TestUpdateDocumentStructure_StaleVersion_Conflict(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	seedDocumentProject(t, db, "p1")

	d, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := UpdateDocumentStructure(context.Background(), db, d.ID, []byte(`{"sections":[]}`), 1); err != nil {
		t.Fatalf("first write: %v", err)
	}

	// A second writer still holding version 1 must lose.
	err = UpdateDocumentStructure(context.Background(), db, d.ID, []byte(`{"sections":[]}`), 1)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUpdateDocumentContent_BumpsVersion(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	seedDocumentProject(t, db, "p1")

	d, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	content := []byte(`{"section-1":"Generated text."}`)
	if err := UpdateDocumentContent(context.Background(), db, d.ID, content, 1); err != nil {
		t.Fatalf("UpdateDocumentContent: %v", err)
	}

	var got domain.Document
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != 2 || string(got.Content) != string(content) {
		t.Fatalf("unexpected document after content write: v=%d content=%s", got.Version, got.Content)
	}
}

func TestUpdateDocumentContent_MissingDocument_Conflict(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	err := UpdateDocumentContent(context.Background(), db, "missing", []byte(`{}`), 1)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for vanished document, got %v", err)
	}
}

func TestUpdateDocumentContent_SequentialWrites(t *testing.T) {
	db := newDocumentRepoDB(t, &domain.Project{}, &domain.Document{})
	seedDocumentProject(t, db, "p1")

	d, err := CreateDocument(context.Background(), db, "p1", []byte(`{"sections":[]}`))
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	// Each committed write advances the version exactly once.
	for i := 1; i <= 3; i++ {
		body := []byte(fmt.Sprintf(`{"section-1":"rev %d"}`, i))
		if err := UpdateDocumentContent(context.Background(), db, d.ID, body, i); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	var got domain.Document
	if err := db.First(&got, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != 4 {
		t.Fatalf("expected version 4 after three writes, got %d", got.Version)
	}
}
