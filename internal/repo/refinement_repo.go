// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Refinement
// history, including the pruning that keeps the per-item history bounded.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-docgen-backend/internal/domain"
)

// CreateRefinement inserts one history row. Prompt is set for AI refinements,
// comments for free-text notes; previous and next mirror the item text around
// the action for client display.
func CreateRefinement(ctx context.Context, db *gorm.DB, documentID, itemID string, prompt, comments, previous, next *string) (*domain.Refinement, error) {
	r := &domain.Refinement{
		ID:              uuid.NewString(),
		DocumentID:      documentID,
		ItemID:          itemID,
		Prompt:          prompt,
		Comments:        comments,
		PreviousContent: previous,
		NewContent:      next,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListRefinementsPage returns history rows for a document, newest first.
// itemID narrows the listing to one structure item when non-empty.
func ListRefinementsPage(ctx context.Context, db *gorm.DB, documentID, itemID string, offset, limit int) ([]domain.Refinement, error) {
	var out []domain.Refinement
	q := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit)
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountRefinements returns the number of history rows for a document,
// optionally narrowed to one item.
func CountRefinements(ctx context.Context, db *gorm.DB, documentID, itemID string) (int64, error) {
	var total int64
	q := db.WithContext(ctx).
		Model(&domain.Refinement{}).
		Where("document_id = ?", documentID)
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}
	err := q.Count(&total).Error
	return total, err
}

// PruneRefinements hard-deletes all but the newest keep rows for one
// (document, item) pair and reports how many rows went. Ordering ties on
// created_at break on id so concurrent inserts within the same tick still
// prune deterministically.
func PruneRefinements(ctx context.Context, db *gorm.DB, documentID, itemID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	newest := db.Model(&domain.Refinement{}).
		Select("id").
		Where("document_id = ? AND item_id = ?", documentID, itemID).
		Order("created_at DESC, id DESC").
		Limit(keep)
	res := db.WithContext(ctx).
		Unscoped().
		Where("document_id = ? AND item_id = ? AND id NOT IN (?)", documentID, itemID, newest).
		Delete(&domain.Refinement{})
	return res.RowsAffected, res.Error
}
