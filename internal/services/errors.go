// Package services defines the business logic for projects, documents,
// content generation, refinement, feedback, templates, and export. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// The error texts are client-facing: the handler layer maps each category to
// an HTTP status with errors.Is and surfaces Error() verbatim as the response
// message. Errors that name a specific item or kind are built with failf,
// which formats the message while keeping the category checkable.
package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Project errors.
var (
	// ErrProjectNotFound indicates that the requested project does not exist.
	ErrProjectNotFound = errors.New("Project not found")

	// ErrProjectForbidden indicates the project exists but is owned by a
	// different user.
	ErrProjectForbidden = errors.New("Project does not belong to user")

	// ErrEmptyTitle is returned when a project title is blank after trimming.
	ErrEmptyTitle = errors.New("Project title cannot be empty")

	// ErrTitleTooLong is returned when a project title exceeds 255 characters.
	ErrTitleTooLong = errors.New("Project title must be less than 255 characters")

	// ErrEmptyTopic is returned when a project main topic is blank after
	// trimming.
	ErrEmptyTopic = errors.New("Main topic cannot be empty")

	// ErrTopicTooLong is returned when a project main topic exceeds 500
	// characters.
	ErrTopicTooLong = errors.New("Main topic must be less than 500 characters")

	// ErrInvalidKind is returned when a document kind is neither "word" nor
	// "powerpoint".
	ErrInvalidKind = errors.New("Document type must be 'word' or 'powerpoint'")
)

// Document, generation and refinement errors.
var (
	// ErrDocumentNotFound indicates the project has no document yet. Service
	// methods wrap it with operation-specific guidance via failf.
	ErrDocumentNotFound = errors.New("Document not found")

	// ErrNotConfigured is returned when bulk generation runs against a
	// document whose outline holds no items.
	ErrNotConfigured = errors.New("Document structure is empty. Please configure the structure first.")

	// ErrInvalidStructure is returned at export time when the stored outline
	// does not decode for the project kind.
	ErrInvalidStructure = errors.New("Document structure is invalid")

	// ErrDocumentEmpty is returned at export time when the outline decodes
	// but holds no items. Always wrapped with the kind vocabulary.
	ErrDocumentEmpty = errors.New("Document has no items")

	// ErrItemNotFound indicates the referenced id is not part of the document
	// outline. Always wrapped with the item id.
	ErrItemNotFound = errors.New("Item not found in document structure")

	// ErrNoContent indicates the referenced item has never been generated.
	// Always wrapped with the item id.
	ErrNoContent = errors.New("Item has no content")

	// ErrKindMismatch is returned when a kind-restricted operation (export,
	// reorder) is called on a project of the other kind.
	ErrKindMismatch = errors.New("Operation is not available for this document type")

	// ErrGenerationFailed indicates the AI capability failed after all
	// retries. Bulk generation downgrades it to a per-item placeholder;
	// single-item generation and refinement surface it.
	ErrGenerationFailed = errors.New("Content generation failed")

	// ErrEmptyPrompt is returned when a refinement instruction is blank after
	// trimming.
	ErrEmptyPrompt = errors.New("Refinement prompt cannot be empty")

	// ErrEmptyComment is returned when a comment body is blank after trimming.
	ErrEmptyComment = errors.New("Comments cannot be empty")

	// ErrEmptyRefinement is returned when the AI produced blank text for a
	// refinement.
	ErrEmptyRefinement = errors.New("Generated refined content is empty")

	// ErrInvalidFeedback is returned when a feedback value is outside the
	// allowed set (like, dislike, or null to reset).
	ErrInvalidFeedback = errors.New("Feedback must be 'like', 'dislike', or null")
)

// Template errors.
var (
	// ErrTemplateNotFound indicates that the requested template does not
	// exist.
	ErrTemplateNotFound = errors.New("Template not found")

	// ErrTemplateForbidden indicates the template is owned by another user.
	ErrTemplateForbidden = errors.New("Template does not belong to user")

	// ErrNoTemplate is returned when a user has no template for the requested
	// document kind. Always wrapped with the kind.
	ErrNoTemplate = errors.New("No template found")

	// ErrEmptyName is returned when a template name is blank after trimming.
	ErrEmptyName = errors.New("Template name cannot be empty")

	// ErrNameTooLong is returned when a template name exceeds 255 characters.
	ErrNameTooLong = errors.New("Template name must be less than 255 characters")

	// ErrInvalidConfig is returned when a template configuration does not
	// parse as a style config document.
	ErrInvalidConfig = errors.New("Template config is invalid")
)

// opError carries an exact client-facing message while unwrapping to one of
// the category sentinels above, so errors.Is keeps working on the composed
// value.
type opError struct {
	msg string
	cat error
}

func (e *opError) Error() string { return e.msg }

func (e *opError) Unwrap() error { return e.cat }

// failf builds a client-facing error in category cat with a formatted
// message.
func failf(cat error, format string, args ...any) error {
	return &opError{msg: fmt.Sprintf(format, args...), cat: cat}
}

// isNotFound reports whether err means "no such row".
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate reports whether err looks like a unique-constraint violation.
// Matched on message text so it works across drivers.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed")
}
