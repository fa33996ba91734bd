package jobs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"propcore/internal/model"
	"propcore/internal/repository"
	"propcore/internal/storage"
)

// eicarSignature is the standard antivirus test pattern. The scanner streams
// the object and flags any occurrence; real engine integration sits behind
// the same Processor contract.
const eicarSignature = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

// AVScanProcessor streams a document from object storage and scans it.
// A clean result marks the parent document clean; a hit marks it infected.
type AVScanProcessor struct {
	store storage.Storage
}

// NewAVScanProcessor constructs the virus-scan pipeline step.
func NewAVScanProcessor(store storage.Storage) *AVScanProcessor {
	return &AVScanProcessor{store: store}
}

func (p *AVScanProcessor) Kind() model.JobKind { return model.JobAVScan }

func (p *AVScanProcessor) Process(ctx context.Context, job *model.Job) (json.RawMessage, *repository.DocumentDerived, error) {
	in, err := DecodePayload(job)
	if err != nil {
		return nil, nil, err
	}

	obj, _, err := p.store.Get(ctx, in.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", in.StoragePath, err)
	}
	defer obj.Close()

	infected, err := scanStream(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", in.StoragePath, err)
	}

	status := model.ProcessingClean
	if infected {
		status = model.ProcessingInfected
	}
	result, _ := json.Marshal(map[string]any{"infected": infected, "engine": "signature"})
	return result, &repository.DocumentDerived{Processing: strPtr(status)}, nil
}

// scanStream reads r in overlapping windows so a signature spanning a chunk
// boundary is still caught.
func scanStream(r io.Reader) (bool, error) {
	sig := []byte(eicarSignature)
	br := bufio.NewReaderSize(r, 64*1024)
	carry := make([]byte, 0, len(sig)-1)
	buf := make([]byte, 64*1024)

	for {
		n, err := br.Read(buf)
		if n > 0 {
			window := append(carry, buf[:n]...)
			if bytes.Contains(window, sig) {
				return true, nil
			}
			if len(window) >= len(sig)-1 {
				carry = append(carry[:0], window[len(window)-(len(sig)-1):]...)
			} else {
				carry = append(carry[:0], window...)
			}
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}
