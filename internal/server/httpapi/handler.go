package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tbenoist/harmonia/internal/common"
	"github.com/tbenoist/harmonia/internal/server/models"
	"github.com/tbenoist/harmonia/internal/server/services"
)

// envelope is the uniform response shape: {success, data, error}.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var batch services.SyncBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed sync request")
		return
	}

	result, err := s.sync.Merge(r.Context(), userIDFromContext(r.Context()), &batch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (s *Server) handleWidgetGet(w http.ResponseWriter, r *http.Request) {
	state, err := s.widgets.Get(r.Context(), userIDFromContext(r.Context()), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, state)
}

func (s *Server) handleWidgetPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed widget payload")
		return
	}

	state, err := s.widgets.Put(r.Context(), userIDFromContext(r.Context()), r.PathValue("slug"), body.Data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, state)
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Start(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, session)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, session)
}

func (s *Server) handleSessionAnswer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuestionNumber int             `json:"questionNumber"`
		Value          json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed answer payload")
		return
	}

	session, err := s.sessions.SubmitAnswer(r.Context(), r.PathValue("id"), body.QuestionNumber, body.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Completing the questionnaire triggers generation as a decoupled
	// follow-up: the session transition is already committed, and a
	// generation failure must not corrupt it.
	if session.Status == models.SessionCompleted {
		go func() {
			ctx := context.WithoutCancel(r.Context())
			if _, err := s.profiles.Generate(ctx, session.ID); err != nil {
				s.logger.Error(ctx, "profile generation after completion failed",
					"session_id", session.ID, "error", err.Error())
			}
		}()
	}

	writeSuccess(w, http.StatusOK, session)
}

func (s *Server) handleSessionAbandon(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Abandon(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, session)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.sessions.ListQuestions(r.Context(), r.URL.Query().Get("locale"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, questions)
}

func (s *Server) handleProfileGenerate(w http.ResponseWriter, r *http.Request) {
	generated, err := s.profiles.Generate(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, generated)
}

func (s *Server) handleProfileActive(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.GetActive(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, profile)
}

func (s *Server) handleProfileVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.profiles.ListVersions(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, versions)
}

func (s *Server) handleProfileDocument(w http.ResponseWriter, r *http.Request) {
	url, err := s.profiles.DocumentURL(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"url": url})
}
