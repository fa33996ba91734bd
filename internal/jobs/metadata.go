package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"propcore/internal/model"
	"propcore/internal/repository"
	"propcore/internal/storage"
)

// MetadataProcessor records structured facts about the stored object on the
// parent document.
type MetadataProcessor struct {
	store storage.Storage
}

// NewMetadataProcessor constructs the metadata-extraction pipeline step.
func NewMetadataProcessor(store storage.Storage) *MetadataProcessor {
	return &MetadataProcessor{store: store}
}

func (p *MetadataProcessor) Kind() model.JobKind { return model.JobMetadata }

func (p *MetadataProcessor) Process(ctx context.Context, job *model.Job) (json.RawMessage, *repository.DocumentDerived, error) {
	in, err := DecodePayload(job)
	if err != nil {
		return nil, nil, err
	}

	obj, info, err := p.store.Get(ctx, in.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", in.StoragePath, err)
	}
	obj.Close() // only the object info is needed

	meta, err := json.Marshal(map[string]any{
		"size":          info.Size,
		"content_type":  info.ContentType,
		"etag":          info.ETag,
		"last_modified": info.LastModified,
		"extension":     strings.TrimPrefix(filepath.Ext(in.Filename), "."),
	})
	if err != nil {
		return nil, nil, err
	}

	return meta, &repository.DocumentDerived{Metadata: meta}, nil
}
