// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Project model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a project is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Ownership is NOT enforced here: GetProject loads by id alone so the
// service layer can distinguish "missing" from "belongs to someone else".
//
// Functions:
//
//   - CreateProject(ctx, db, userID, kind, title, mainTopic) -> *domain.Project, error
//     Inserts a new Project row with UUID primary key and UTC timestamps.
//
//   - CountProjects(ctx, db, userID) -> (int64, error)
//     Returns the total number of projects owned by the user.
//
//   - ListProjectsPage(ctx, db, userID, offset, limit) -> []domain.Project, error
//     Returns a paginated slice of projects, most recently updated first.
//
//   - GetProject(ctx, db, id) -> *domain.Project, error
//     Fetches a single project by ID, or ErrNotFound if missing.
//
//   - UpdateProject(ctx, db, id, fields) -> error
//     Applies a partial column update. Returns ErrNotFound when no row
//     matches.
//
//   - DeleteProject(ctx, db, id) -> error
//     Hard-deletes the project; the document, refinements and feedback go
//     with it through ON DELETE CASCADE.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.ProjectService) which enforces ownership and validation.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateProject inserts a new Project row owned by userID.
// The project ID is a randomly generated UUID (string), and CreatedAt is set to UTC.
//
// On success, it returns the persisted Project. On failure, it returns a DB error.
func CreateProject(ctx context.Context, db *gorm.DB, userID, kind, title, mainTopic string) (*domain.Project, error) {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		MainTopic: mainTopic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// CountProjects returns the total number of projects owned by userID.
// On DB error, it returns the error.
func CountProjects(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListProjectsPage returns a paginated slice of projects for userID, ordered
// by last update descending so recently touched work floats to the top. Use
// CountProjects to obtain the total for pagination metadata. On DB error, it
// returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListProjectsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Project, error) {
	var out []domain.Project
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetProject fetches a single project by its ID regardless of owner. If the
// record does not exist, it returns ErrNotFound. On other DB errors, the raw
// error is returned.
func GetProject(ctx context.Context, db *gorm.DB, id string) (*domain.Project, error) {
	var p domain.Project
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject applies a partial column update to the project identified by
// id. If no rows are affected (project missing), it returns ErrNotFound.
// On DB error, the raw error is returned.
func UpdateProject(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteProject removes the project row for good. Soft deletion is bypassed
// on purpose: the documents table holds a unique project_id and the cascade
// to refinements and feedback only fires on a real DELETE.
func DeleteProject(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&domain.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
