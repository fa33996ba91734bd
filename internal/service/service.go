// Package service implements the use cases: each operation composes the
// authorization engine, the entity store, the audit trail and, where relevant,
// object storage, the job queue and the response cache.
package service

import (
	"encoding/json"
	"errors"
)

// Validation errors shared across services.
var (
	ErrIDRequired        = errors.New("id is required")
	ErrPrincipalRequired = errors.New("principal id is required")
	ErrReaderNil         = errors.New("reader is nil")
	ErrInvalidVisibility = errors.New("invalid visibility")
	ErrInvalidTier       = errors.New("invalid tier")
	ErrTitleRequired     = errors.New("title is required")
	ErrAddressRequired   = errors.New("address line 1 and postcode are required")
	ErrInvalidEntityType = errors.New("unknown entity type")
)

// snapshot converts a model value into the generic map form stored on audit
// events. Masking happens inside the audit logger, not here.
func snapshot(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
