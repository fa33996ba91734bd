package model

import "time"

// Action is the kind of mutation recorded by an audit event.
type Action string

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionUpload   Action = "upload"
	ActionDownload Action = "download"
	ActionShare    Action = "share"
	ActionClaim    Action = "claim"
	ActionUnclaim  Action = "unclaim"
)

// AuditEvent is an immutable record of one mutation to a protected entity.
// OldState/NewState are snapshots with denylisted fields already masked;
// the original values are never stored.
type AuditEvent struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     Action         `json:"action"`
	EntityType EntityType     `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	OldState   map[string]any `json:"old_state,omitempty"`
	NewState   map[string]any `json:"new_state,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
