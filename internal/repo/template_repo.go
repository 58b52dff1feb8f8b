// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the style
// Template model used at export time.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

// CreateTemplate inserts a new style template owned by userID.
func CreateTemplate(ctx context.Context, db *gorm.DB, userID, name string, description *string, kind string, config []byte, isDefault, isPublic bool) (*domain.Template, error) {
	now := time.Now().UTC()
	t := &domain.Template{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Kind:        kind,
		Config:      datatypes.JSON(config),
		IsDefault:   isDefault,
		IsPublic:    isPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// GetTemplate fetches a template by ID regardless of owner, so the service
// layer can distinguish "missing" from "belongs to someone else".
// Returns ErrNotFound when no row matches.
func GetTemplate(ctx context.Context, db *gorm.DB, id string) (*domain.Template, error) {
	var t domain.Template
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates returns a user's templates, defaults first, then newest
// first. kind narrows the listing when non-empty.
func ListTemplates(ctx context.Context, db *gorm.DB, userID, kind string) ([]domain.Template, error) {
	var out []domain.Template
	q := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Find(&out).Error
	return out, err
}

// UpdateTemplate applies a partial column update to the template identified
// by id. Returns ErrNotFound when no row matches.
func UpdateTemplate(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Template{}).
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

// DeleteTemplate removes the template row for good.
// Returns ErrNotFound when no row matches.
func DeleteTemplate(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&domain.Template{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearDefaultTemplates unsets is_default on every template the user owns
// for one kind, excluding excludeID when non-empty. Used before marking a
// template as the new default so at most one default survives per
// (user, kind).
func ClearDefaultTemplates(ctx context.Context, db *gorm.DB, userID, kind, excludeID string) error {
	q := db.WithContext(ctx).
		Model(&domain.Template{}).
		Where("user_id = ? AND kind = ? AND is_default = ?", userID, kind, true)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	return q.Update("is_default", false).Error
}
