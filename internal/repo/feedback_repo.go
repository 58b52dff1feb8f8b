// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving the like/dislike toggle rules to the services
// package.
//
// Error semantics:
//   - A second row for the same (document_id, item_id) relies on the database
//     unique constraint and is returned as a raw DB error; the service layer
//     never creates one because it updates in place.
//   - When a row is missing, functions return ErrNotFound.
//
// Functions:
//
//   - GetFeedback(ctx, db, documentID, itemID) -> *domain.Feedback, error
//     Loads the single row for an item, or ErrNotFound.
//
//   - CreateFeedback(ctx, db, documentID, itemID, typ) -> *domain.Feedback, error
//     Inserts the row. The (document_id, item_id) pair must be unique.
//
//   - UpdateFeedbackType(ctx, db, id, typ) -> error
//     Overwrites the type in place; updated_at moves even for a same-value
//     overwrite.
//
//   - DeleteFeedback(ctx, db, id) -> error
//     Hard-deletes the row so the unique slot frees up for a later signal.
//
//   - ListFeedbackByDocument(ctx, db, documentID, itemIDs) -> []domain.Feedback, error
//     Returns rows for a document, optionally narrowed to specific items.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

// GetFeedback loads the feedback row for one (document, item) pair.
// If the record does not exist, it returns ErrNotFound.
func GetFeedback(ctx context.Context, db *gorm.DB, documentID, itemID string) (*domain.Feedback, error) {
	var fb domain.Feedback
	err := db.WithContext(ctx).
		Where("document_id = ? AND item_id = ?", documentID, itemID).
		First(&fb).Error
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

// CreateFeedback inserts the feedback row for the given document item.
//
// The combination (document_id, item_id) is unique, enforced by the database
// schema. Typ must be "like" or "dislike"; validation is enforced at higher
// layers and via the DB check constraint.
func CreateFeedback(ctx context.Context, db *gorm.DB, documentID, itemID, typ string) (*domain.Feedback, error) {
	now := time.Now().UTC()
	fb := &domain.Feedback{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		ItemID:     itemID,
		Type:       typ,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, err
	}
	return fb, nil
}

// UpdateFeedbackType overwrites the type of an existing row. The update runs
// even when the value is unchanged, so updated_at always records the latest
// submission. Returns ErrNotFound when no row matches.
func UpdateFeedbackType(ctx context.Context, db *gorm.DB, id, typ string) error {
	res := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"type":       typ,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteFeedback removes the row for good. A soft delete would keep the
// unique (document_id, item_id) slot occupied and block the next signal.
func DeleteFeedback(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&domain.Feedback{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFeedbackByDocument returns feedback rows for a document. When itemIDs
// is non-empty the listing narrows to those items.
func ListFeedbackByDocument(ctx context.Context, db *gorm.DB, documentID string, itemIDs []string) ([]domain.Feedback, error) {
	var out []domain.Feedback
	q := db.WithContext(ctx).Where("document_id = ?", documentID)
	if len(itemIDs) > 0 {
		q = q.Where("item_id IN ?", itemIDs)
	}
	err := q.Find(&out).Error
	return out, err
}
