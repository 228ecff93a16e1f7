package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

// AdminHandler exposes the host-facing session operations over plain HTTP.
// Authentication happens upstream; the host identity arrives in the body.
type AdminHandler struct {
	service *app.SessionService
}

func NewAdminHandler(service *app.SessionService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Register mounts the admin routes on mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quizzes/{quiz}/sessions", h.startSession)
	mux.HandleFunc("GET /quizzes/{quiz}/sessions", h.listSessions)
	mux.HandleFunc("GET /quizzes/{quiz}/sessions/{session}", h.sessionStatus)
	mux.HandleFunc("POST /quizzes/{quiz}/sessions/{session}/actions", h.applyAction)
	mux.HandleFunc("GET /quizzes/{quiz}/sessions/{session}/results/{pos}", h.questionResult)
	mux.HandleFunc("GET /quizzes/{quiz}/sessions/{session}/final", h.finalResults)
}

type startSessionRequest struct {
	HostID    string `json:"hostId"`
	AutoStart int    `json:"autoStart"`
}

func (h *AdminHandler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	session, err := h.service.StartSession(r.Context(), r.PathValue("quiz"), req.HostID, req.AutoStart)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": session.ID,
		"state":     session.State,
	})
}

func (h *AdminHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListSessions(r.Context(), r.PathValue("quiz"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *AdminHandler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.SessionStatus(r.Context(), r.PathValue("quiz"), r.PathValue("session"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type actionRequest struct {
	HostID string `json:"hostId"`
	Action string `json:"action"`
}

func (h *AdminHandler) applyAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	status, err := h.service.ApplyAction(r.Context(), r.PathValue("quiz"), r.PathValue("session"), req.HostID, req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AdminHandler) questionResult(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(r.PathValue("pos"))
	if err != nil {
		http.Error(w, "invalid question position", http.StatusBadRequest)
		return
	}
	result, err := h.service.QuestionResult(r.Context(), r.PathValue("quiz"), r.PathValue("session"), pos)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) finalResults(w http.ResponseWriter, r *http.Request) {
	standings, err := h.service.FinalResults(r.Context(), r.PathValue("quiz"), r.PathValue("session"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrResultNotAvailable):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, domain.ErrWrongQuestion),
		errors.Is(err, domain.ErrAnswersClosed),
		errors.Is(err, domain.ErrSessionLimit):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrEmptyAnswer),
		errors.Is(err, domain.ErrDuplicateAnswer),
		errors.Is(err, domain.ErrUnknownAnswer),
		errors.Is(err, domain.ErrNameTaken),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrQuizTrashed):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
