// Package domain defines the persistence models for projects, documents,
// refinements, feedback, and style templates. These types are mapped with
// GORM and form the core data layer of the document generation backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document kinds. A project produces either a Word document or a PowerPoint
// presentation; the kind decides the structure vocabulary (sections vs slides).
const (
	KindWord       = "word"
	KindPowerPoint = "powerpoint"
)

// Feedback types. Exactly one row per (document, item) may exist; the type is
// mutated in place, never duplicated.
const (
	FeedbackLike    = "like"
	FeedbackDislike = "dislike"
)

// Project represents an authoring workspace owned by a user. Each project
// targets one document kind and owns at most one Document.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the project owner; indexed for efficient retrieval.
//   - Kind: "word" or "powerpoint" (enforced by DB constraint).
//   - Title: human-readable project title, also used for export filenames.
//   - MainTopic: the subject all generated content is anchored to.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Project struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_projects"`
	Kind      string         `json:"kind"       gorm:"type:varchar(20);not null;check:kind IN ('word','powerpoint')"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	MainTopic string         `json:"main_topic" gorm:"type:varchar(500);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Project.
func (Project) TableName() string { return "projects" }

// Document holds the outline and the generated text of one project. The
// Content map is the single authoritative store of item text; Version is
// bumped exactly once per committed structural or content mutation, which is
// what optimistic content writes compare against.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ProjectID: foreign key to the owning project; unique (1:1).
//   - Structure: JSON outline, {"sections":[...]} or {"slides":[...]} by kind.
//   - Content: JSON map of item id to generated/refined text.
//   - Version: monotonic mutation counter, starts at 1.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
//   - Project: FK association, ensures cascade delete/update.
type Document struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	ProjectID string         `json:"project_id" gorm:"type:char(36);not null;uniqueIndex:ux_document_project"`
	Structure datatypes.JSON `json:"structure"  gorm:"not null"`
	Content   datatypes.JSON `json:"content"`
	Version   int            `json:"version"    gorm:"not null;default:1"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Project is the owning workspace. Documents are cascade-deleted if
	// their project is removed.
	Project Project `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// Refinement records one refine or comment action against a document item.
// It is history metadata only: the authoritative text lives in
// Document.Content. PreviousContent/NewContent mirror the text at the time of
// the action for client display and are never read back as a content source.
// At most three records per (document, item) survive; older ones are pruned.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - DocumentID: foreign key to the refined document (indexed with ItemID).
//   - ItemID: structure item (section/slide) the action targeted.
//   - Prompt: the user's refinement instruction; nil for comment-only rows.
//   - Comments: free-text note; nil for AI refinement rows.
//   - PreviousContent / NewContent: display mirrors of the text around the
//     action.
//   - CreatedAt: insertion timestamp; prune ordering key.
//   - Document: FK association, ensures cascade delete/update.
type Refinement struct {
	ID              string         `json:"id"          gorm:"type:char(36);primaryKey"`
	DocumentID      string         `json:"document_id" gorm:"type:char(36);not null;index:idx_document_items,priority:1"`
	ItemID          string         `json:"item_id"     gorm:"type:varchar(64);not null;index:idx_document_items,priority:2"`
	Prompt          *string        `json:"prompt,omitempty"   gorm:"type:text"`
	Comments        *string        `json:"comments,omitempty" gorm:"type:text"`
	PreviousContent *string        `json:"previous_content,omitempty" gorm:"type:text"`
	NewContent      *string        `json:"new_content,omitempty"      gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at"  gorm:"index:idx_document_items,priority:3"`
	DeletedAt       gorm.DeletedAt `json:"-"           gorm:"index"`

	// Document is the refined document. History is cascade-deleted if the
	// underlying document is removed.
	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Refinement.
func (Refinement) TableName() string { return "refinements" }

// Feedback represents a like/dislike signal attached to one document item.
// The unique index makes "at most one row per (document, item)" a database
// invariant rather than an application promise.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - DocumentID: foreign key to the rated document (unique per item).
//   - ItemID: structure item the signal applies to (unique per document).
//   - Type: "like" or "dislike" (enforced by DB constraint).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM; UpdatedAt moves on
//     every resubmission, including same-value overwrites.
//   - Document: FK association, ensures cascade delete/update.
type Feedback struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	DocumentID string         `json:"document_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_document_item"`
	ItemID     string         `json:"item_id"     gorm:"type:varchar(64);not null;uniqueIndex:ux_feedback_document_item"`
	Type       string         `json:"type"        gorm:"type:varchar(10);not null;check:type IN ('like','dislike')"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`

	// Document is the rated document. Feedback is cascade-deleted if the
	// underlying document is removed.
	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }

// Template stores a reusable visual design specification (colors, typography,
// spacing, layout) applied at export time. Config is an opaque JSON blob whose
// shape is owned by the render layer. At most one template per (user, kind)
// carries IsDefault; setting a new default clears the previous one.
type Template struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string         `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_templates"`
	Name        string         `json:"name"        gorm:"type:varchar(255);not null"`
	Description *string        `json:"description,omitempty" gorm:"type:text"`
	Kind        string         `json:"kind"        gorm:"type:varchar(20);not null;check:kind IN ('word','powerpoint')"`
	Config      datatypes.JSON `json:"config"      gorm:"not null"`
	IsDefault   bool           `json:"is_default"  gorm:"not null;default:false"`
	IsPublic    bool           `json:"is_public"   gorm:"not null;default:false"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Template.
func (Template) TableName() string { return "templates" }
