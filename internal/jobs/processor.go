package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"propcore/internal/model"
	"propcore/internal/repository"
)

// Payload is the job input captured at upload time: the stable storage
// reference plus the content facts the processors need. The queue itself
// never touches file bytes.
type Payload struct {
	StoragePath string `json:"storage_path"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
}

// DecodePayload parses a job's input payload.
func DecodePayload(j *model.Job) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return Payload{}, fmt.Errorf("decode payload for job %s: %w", j.ID, err)
	}
	if p.StoragePath == "" {
		return Payload{}, fmt.Errorf("job %s payload has no storage path", j.ID)
	}
	return p, nil
}

// Processor executes one job kind. Implementations return the job result and
// the parent document fields derived from it.
type Processor interface {
	Kind() model.JobKind
	Process(ctx context.Context, job *model.Job) (json.RawMessage, *repository.DocumentDerived, error)
}

func strPtr(s string) *string { return &s }
