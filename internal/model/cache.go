package model

import (
	"encoding/json"
	"time"
)

// CacheEntry is one cached upstream response, keyed by (provider, request key).
// ValidationToken carries the provider's opaque revalidation handle (an ETag
// or equivalent) when one was returned.
type CacheEntry struct {
	Provider        string          `json:"provider"`
	RequestKey      string          `json:"request_key"`
	Payload         json.RawMessage `json:"payload"`
	ValidationToken string          `json:"validation_token,omitempty"`
	FetchedAt       time.Time       `json:"fetched_at"`
	TTLSeconds      int             `json:"ttl_seconds"`
	Stale           bool            `json:"stale"`
}

// ExpiresAt is the instant the entry becomes stale.
func (e CacheEntry) ExpiresAt() time.Time {
	return e.FetchedAt.Add(time.Duration(e.TTLSeconds) * time.Second)
}

// StaleAt reports whether the entry is stale at the given instant.
func (e CacheEntry) StaleAt(now time.Time) bool {
	return now.After(e.ExpiresAt())
}
