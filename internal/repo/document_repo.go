// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Document
// model, including the optimistic version checks that content and structure
// writes rely on.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

// ErrConflict is returned when a compare-and-set write finds that the
// document version moved since it was read. Callers re-read and retry.
var ErrConflict = errors.New("document version conflict")

// CreateDocument inserts the document row for a project at version 1.
// The documents table enforces one document per project.
func CreateDocument(ctx context.Context, db *gorm.DB, projectID string, structure []byte) (*domain.Document, error) {
	now := time.Now().UTC()
	d := &domain.Document{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Structure: datatypes.JSON(structure),
		Content:   datatypes.JSON([]byte(`{}`)),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// GetDocument fetches a document by its own id, or ErrNotFound. Used to
// re-read the current version after a compare-and-set write lost the race.
func GetDocument(ctx context.Context, db *gorm.DB, id string) (*domain.Document, error) {
	var d domain.Document
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDocumentByProject fetches the document belonging to projectID, or
// ErrNotFound if the project has none yet.
func GetDocumentByProject(ctx context.Context, db *gorm.DB, projectID string) (*domain.Document, error) {
	var d domain.Document
	err := db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDocumentStructure replaces the outline and advances the version by
// one, succeeding only while fromVersion still matches the stored row.
// Returns ErrConflict when the version moved (or the document vanished);
// callers re-read to tell the two apart.
func UpdateDocumentStructure(ctx context.Context, db *gorm.DB, id string, structure []byte, fromVersion int) error {
	res := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ? AND version = ?", id, fromVersion).
		Updates(map[string]any{
			"structure": datatypes.JSON(structure),
			"version":   gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// UpdateDocumentContent replaces the content map and advances the version by
// one under the same compare-and-set rule as UpdateDocumentStructure.
func UpdateDocumentContent(ctx context.Context, db *gorm.DB, id string, content []byte, fromVersion int) error {
	res := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ? AND version = ?", id, fromVersion).
		Updates(map[string]any{
			"content": datatypes.JSON(content),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
