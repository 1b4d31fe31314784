package model

import "time"

// Audit actions recorded for record mutations.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// AuditEvent describes one committed mutation. It travels through the audit queue as JSON.
type AuditEvent struct {
	Entity     string    `json:"entity"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditLog is a persisted audit event.
type AuditLog struct {
	ID         int64     `json:"id"`
	Entity     string    `json:"entity"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditFilter narrows an audit log listing.
type AuditFilter struct {
	Entity  string
	Page    int
	PerPage int
}
