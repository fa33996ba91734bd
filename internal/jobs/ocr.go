package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"propcore/internal/model"
	"propcore/internal/repository"
	"propcore/internal/storage"
)

// extractedTextCap bounds how much text is stored on the parent document.
const extractedTextCap = 64 * 1024

// OCRProcessor extracts searchable text from a document. Plain-text content
// is read directly; other content types are recorded as skipped until an
// OCR engine is plugged in behind the same contract.
type OCRProcessor struct {
	store storage.Storage
}

// NewOCRProcessor constructs the text-extraction pipeline step.
func NewOCRProcessor(store storage.Storage) *OCRProcessor {
	return &OCRProcessor{store: store}
}

func (p *OCRProcessor) Kind() model.JobKind { return model.JobOCR }

func (p *OCRProcessor) Process(ctx context.Context, job *model.Job) (json.RawMessage, *repository.DocumentDerived, error) {
	in, err := DecodePayload(job)
	if err != nil {
		return nil, nil, err
	}

	if !textual(in.ContentType) {
		result, _ := json.Marshal(map[string]any{"skipped": true, "reason": "unsupported content type"})
		return result, nil, nil
	}

	obj, _, err := p.store.Get(ctx, in.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", in.StoragePath, err)
	}
	defer obj.Close()

	b, err := io.ReadAll(io.LimitReader(obj, extractedTextCap))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", in.StoragePath, err)
	}
	text := strings.ToValidUTF8(string(b), "")

	result, _ := json.Marshal(map[string]any{"chars": len(text), "truncated": int64(len(b)) >= extractedTextCap})
	return result, &repository.DocumentDerived{ExtractedText: strPtr(text)}, nil
}

func textual(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") ||
		strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "application/xml")
}
