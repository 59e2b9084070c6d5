package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"phiz-quiz-service/internal/app"
	"phiz-quiz-service/internal/domain"
	"phiz-quiz-service/internal/reminder"
)

// ReminderPlanner exposes the pending reminder jobs of a user.
type ReminderPlanner interface {
	ReminderScheduler
	Planned(userID string) map[reminder.Job]time.Time
}

// APIHandler serves the JSON endpoints around a student's progress and notification settings.
type APIHandler struct {
	identity  Identity
	prefs     app.PreferencesStore
	progress  app.ProgressStore
	reminders ReminderPlanner
}

func NewAPIHandler(identity Identity, prefs app.PreferencesStore, progress app.ProgressStore, reminders ReminderPlanner) *APIHandler {
	return &APIHandler{identity: identity, prefs: prefs, progress: progress, reminders: reminders}
}

// Register mounts the endpoints on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /preferences", h.getPreferences)
	mux.HandleFunc("PUT /preferences", h.putPreferences)
	mux.HandleFunc("GET /grades", h.getGrades)
	mux.HandleFunc("GET /reminders", h.getReminders)
}

type gradesResponse struct {
	Progress domain.Progress     `json:"progress"`
	Results  []domain.QuizResult `json:"results"`
}

func (h *APIHandler) getPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	prefs, err := h.prefs.GetPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *APIHandler) putPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var prefs domain.NotificationPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := app.SavePreferences(r.Context(), h.prefs, userID, prefs); err != nil {
		writeError(w, err)
		return
	}
	if h.reminders != nil {
		if err := h.reminders.Schedule(r.Context(), userID); err != nil {
			log.Printf("reschedule reminders for %s: %v", userID, err)
		}
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *APIHandler) getGrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	progress, err := h.progress.GetProgress(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := h.progress.ListResults(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.QuizResult{}
	}
	writeJSON(w, http.StatusOK, gradesResponse{Progress: progress, Results: results})
}

func (h *APIHandler) getReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	planned := map[reminder.Job]time.Time{}
	if h.reminders != nil {
		planned = h.reminders.Planned(userID)
	}
	writeJSON(w, http.StatusOK, planned)
}

func (h *APIHandler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := h.identity.Identify(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidPreferences):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrMissingIdentity):
		status = http.StatusUnauthorized
	default:
		log.Printf("api error: %v", err)
	}
	writeJSON(w, status, errorPayload{Code: errorCode(err), Message: err.Error()})
}
