package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestProjectsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := ProjectsStats(context.Background(), db, "u1")
	if err == nil {
		t.Fatalf("expected error due to missing projects table")
	}
}

func TestProjectsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Project{})
	count, maxAt, err := ProjectsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ProjectsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestProjectsStats_Success_FilterAndMax(t *testing.T) {
	db := newTestDB(t, &domain.Project{})

	// Seed projects for two users; ensure UpdatedAt is exactly what we set.
	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for u1
	t3 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)   // for other user

	p1 := &domain.Project{ID: "p1", UserID: "u1", Kind: "word", Title: "a", MainTopic: "m", CreatedAt: t1, UpdatedAt: t1}
	p2 := &domain.Project{ID: "p2", UserID: "u1", Kind: "ppt", Title: "b", MainTopic: "m", CreatedAt: t2, UpdatedAt: t2}
	p3 := &domain.Project{ID: "p3", UserID: "u2", Kind: "word", Title: "x", MainTopic: "m", CreatedAt: t3, UpdatedAt: t3}

	if err := db.Create(p1).Error; err != nil {
		t.Fatalf("seed p1: %v", err)
	}
	if err := db.Create(p2).Error; err != nil {
		t.Fatalf("seed p2: %v", err)
	}
	if err := db.Create(p3).Error; err != nil {
		t.Fatalf("seed p3: %v", err)
	}

	count, maxAt, err := ProjectsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ProjectsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected maxUpdatedAt %v, got %v", t2, maxAt)
	}
}

// Force the second query (SELECT updated_at ...) to fail by renaming the column.
func TestProjectsStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.Project{})

	// Seed at least one row so count > 0
	now := time.Now().UTC()
	if err := db.Create(&domain.Project{
		ID:        "px",
		UserID:    "uerr",
		Kind:      "word",
		Title:     "x",
		MainTopic: "m",
		CreatedAt: now,
		UpdatedAt: now,
	}).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}

	// Break the follow-up select by removing/renaming updated_at.
	if err := db.Exec(`ALTER TABLE projects RENAME COLUMN updated_at TO updated_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}

	_, _, err := ProjectsStats(context.Background(), db, "uerr")
	if err == nil {
		t.Fatalf("expected error from latest-updated select after column rename")
	}
}

func TestRefinementsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := RefinementsStats(context.Background(), db, "d1")
	if err == nil {
		t.Fatalf("expected error due to missing refinements table")
	}
}

func TestRefinementsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.Refinement{})
	count, maxAt, err := RefinementsStats(context.Background(), db, "d1")
	if err != nil {
		t.Fatalf("RefinementsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestRefinementsStats_Success_FilterAndMax(t *testing.T) {
	db := newTestDB(t, &domain.Refinement{})

	// Seed history rows in two documents with precise CreatedAt.
	t1 := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 4, 1, 12, 5, 0, 0, time.UTC) // max for dX
	t3 := time.Date(2025, 4, 2, 8, 0, 0, 0, time.UTC)  // other document

	r1 := &domain.Refinement{ID: "r1", DocumentID: "dX", ItemID: "section-1", CreatedAt: t1}
	r2 := &domain.Refinement{ID: "r2", DocumentID: "dX", ItemID: "section-1", CreatedAt: t2}
	r3 := &domain.Refinement{ID: "r3", DocumentID: "dY", ItemID: "section-1", CreatedAt: t3}

	if err := db.Create(r1).Error; err != nil {
		t.Fatalf("seed r1: %v", err)
	}
	if err := db.Create(r2).Error; err != nil {
		t.Fatalf("seed r2: %v", err)
	}
	if err := db.Create(r3).Error; err != nil {
		t.Fatalf("seed r3: %v", err)
	}

	count, maxAt, err := RefinementsStats(context.Background(), db, "dX")
	if err != nil {
		t.Fatalf("RefinementsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected maxCreatedAt %v, got %v", t2, maxAt)
	}
}

// Force the second query (SELECT created_at ...) to fail by renaming the column.
func TestRefinementsStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.Refinement{})

	// Seed at least one row so count > 0
	now := time.Now().UTC()
	if err := db.Create(&domain.Refinement{
		ID:         "rx",
		DocumentID: "derr",
		ItemID:     "section-1",
		CreatedAt:  now,
	}).Error; err != nil {
		t.Fatalf("seed refinement: %v", err)
	}

	// Break the follow-up select by removing/renaming created_at.
	if err := db.Exec(`ALTER TABLE refinements RENAME COLUMN created_at TO created_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}

	_, _, err := RefinementsStats(context.Background(), db, "derr")
	if err == nil {
		t.Fatalf("expected error from latest-created select after column rename")
	}
}
