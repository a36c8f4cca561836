package models

import (
	"encoding/json"
	"time"
)

// HolisticProfile is one generated profile artifact for a completed
// questionnaire session. Version is a contiguous increasing sequence scoped
// to the session, starting at 1. At most one profile per session has
// IsActive true; only the profile version manager flips that flag.
type HolisticProfile struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	UserID      string          `json:"user_id"`
	Version     int             `json:"version"`
	VersionName string          `json:"version_name,omitempty"`
	IsActive    bool            `json:"is_active"`
	Content     json.RawMessage `json:"content"`
	// StorageKey locates the rendered profile document in object storage.
	StorageKey  string    `json:"-"`
	GeneratedAt time.Time `json:"generated_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
