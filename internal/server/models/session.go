package models

import (
	"encoding/json"
	"time"
)

// SessionStatus is the questionnaire session state. Transitions are
// monotonic: STARTED -> IN_PROGRESS -> COMPLETED; ABANDONED is reachable
// from STARTED or IN_PROGRESS only.
type SessionStatus string

const (
	SessionStarted    SessionStatus = "STARTED"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionAbandoned  SessionStatus = "ABANDONED"
)

// Terminal reports whether no further answers are accepted in this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// QuestionnaireSession is one questionnaire attempt. StartedAt and
// LastActivityAt are always UTC; elapsed-time arithmetic on them must never
// mix aware and naive values.
type QuestionnaireSession struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"user_id"`
	Status               SessionStatus `json:"status"`
	// CurrentBloc points into the question hierarchy (canonical french bloc
	// name); empty until the first answer.
	CurrentBloc          string    `json:"current_bloc"`
	CompletionPercentage int       `json:"completion_percentage"`
	StartedAt            time.Time `json:"started_at"`
	LastActivityAt       time.Time `json:"last_activity_at"`
}

// SessionAnswer is one answered question within a session. Re-answering the
// same question number replaces the value in place.
type SessionAnswer struct {
	SessionID      string          `json:"session_id"`
	QuestionNumber int             `json:"question_number"`
	Value          json.RawMessage `json:"value"`
	AnsweredAt     time.Time       `json:"answered_at"`
}
