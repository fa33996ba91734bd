package model

import "time"

// Visibility controls who may read a protected entity, independent of the
// parent property's own public flag.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
	VisibilityPublic  Visibility = "public"
)

// Valid reports whether v is a known visibility level.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityShared, VisibilityPublic:
		return true
	}
	return false
}

// EntityType tags the concrete kind of a protected entity or audit target.
type EntityType string

const (
	EntityProperty     EntityType = "property"
	EntityDocument     EntityType = "document"
	EntityNote         EntityType = "note"
	EntityTask         EntityType = "task"
	EntityRelationship EntityType = "relationship"
)

// Document represents an uploaded file scoped to one property.
// StoragePath is the stable reference returned by the storage gateway;
// ExtractedText, Metadata and ThumbnailPath are derived by processing jobs.
type Document struct {
	ID            string     `json:"id"`
	PropertyID    string     `json:"property_id"`
	CreatorID     string     `json:"creator_id"`
	Visibility    Visibility `json:"visibility"`
	Filename      string     `json:"filename"`
	StoragePath   string     `json:"storage_path"`
	Size          int64      `json:"size"`
	ContentType   string     `json:"content_type"`
	Processing    string     `json:"processing_status"`
	ExtractedText string     `json:"extracted_text,omitempty"`
	Metadata      []byte     `json:"metadata,omitempty"`
	ThumbnailPath string     `json:"thumbnail_path,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Document processing statuses, driven by job outcomes.
const (
	ProcessingPending  = "pending"
	ProcessingClean    = "clean"
	ProcessingInfected = "infected"
	ProcessingFailed   = "failed"
)

// Note is a free-text annotation scoped to one property.
type Note struct {
	ID         string     `json:"id"`
	PropertyID string     `json:"property_id"`
	CreatorID  string     `json:"creator_id"`
	Visibility Visibility `json:"visibility"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Task is a to-do item scoped to one property.
type Task struct {
	ID         string     `json:"id"`
	PropertyID string     `json:"property_id"`
	CreatorID  string     `json:"creator_id"`
	Visibility Visibility `json:"visibility"`
	Title      string     `json:"title"`
	Done       bool       `json:"done"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
