// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

// ProjectsStats returns aggregate metadata for a user's projects: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
//
// It executes two lightweight queries against the projects table scoped to
// the provided userID. When the user has no projects, the returned count is
// 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        total projects for userID
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func ProjectsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Project{}).Where("user_id = ?", userID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// RefinementsStats returns aggregate metadata for a document's refinement
// history: the total number of rows and the maximum CreatedAt timestamp among
// those rows. History rows are append-only (and pruned), so CreatedAt is the
// freshness signal.
//
// When the document has no history, the returned count is 0 and maxCreatedAt
// is nil.
//
// Return values:
//   - count:        total refinement rows for documentID
//   - maxCreatedAt: pointer to the greatest CreatedAt, or nil if no rows
//   - err:          database error, if any
func RefinementsStats(ctx context.Context, db *gorm.DB, documentID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Refinement{}).Where("document_id = ?", documentID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
