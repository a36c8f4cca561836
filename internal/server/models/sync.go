// Package models defines server-side data models persisted in the database.
package models

import (
	"encoding/json"
	"time"
)

// EntityKind names a syncable collection. The server stores every kind the
// same way; the payload schema belongs to the client.
type EntityKind string

const (
	KindTask    EntityKind = "task"
	KindProject EntityKind = "project"
	KindRitual  EntityKind = "ritual"
	KindAlarm   EntityKind = "alarm"
)

// SyncKinds is the merge order for batch processing.
var SyncKinds = []EntityKind{KindTask, KindProject, KindRitual, KindAlarm}

// SyncEntity is one client-owned record in a syncable collection. The ID is
// client-generated and opaque; UpdatedAt is set by the client at last local
// mutation and drives conflict resolution. The stored row is always the one
// with the most recent UpdatedAt ever submitted; no history is retained.
type SyncEntity struct {
	UserID    string
	Kind      EntityKind
	EntityID  string
	Payload   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
