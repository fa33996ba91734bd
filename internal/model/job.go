package model

import (
	"encoding/json"
	"time"
)

// JobKind names one step of the document processing pipeline.
type JobKind string

const (
	JobOCR       JobKind = "ocr"
	JobAVScan    JobKind = "av_scan"
	JobMetadata  JobKind = "extract_metadata"
	JobThumbnail JobKind = "generate_thumbnail"
)

// AllJobKinds lists the pipeline steps fanned out for a new upload.
var AllJobKinds = []JobKind{JobAVScan, JobOCR, JobMetadata, JobThumbnail}

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	switch k {
	case JobOCR, JobAVScan, JobMetadata, JobThumbnail:
		return true
	}
	return false
}

// JobStatus is the state of a job in the queue.
// Transitions: queued -> processing -> {completed | failed};
// failed -> queued while attempts < max_attempts; cancelled is operator-only.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// Job is one unit of asynchronous processing against one document.
type Job struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"document_id"`
	Kind        JobKind         `json:"kind"`
	Status      JobStatus       `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   string          `json:"last_error,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
