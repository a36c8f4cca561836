package models

import (
	"encoding/json"
	"time"
)

// DailyJournal is the singleton-per-date variant of a sync entity, keyed by
// (user, calendar date). The payload holds the free-form reflection fields
// and the mood check-in array; the whole payload is replaced atomically by
// the winning write, the array is never merged element-wise.
type DailyJournal struct {
	UserID    string
	// Date is the calendar date in "2006-01-02" form, unique per user.
	Date      string
	Payload   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
