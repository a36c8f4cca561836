package models

import (
	"encoding/json"
	"time"
)

// WidgetState is an opaque per-(user, widget) JSON blob. The server never
// inspects Data; writes replace the whole value. Exactly one row exists per
// (UserID, WidgetSlug), enforced by a unique constraint at the storage layer.
type WidgetState struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	WidgetSlug string          `json:"widget_slug"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
