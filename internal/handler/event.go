package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/debrief-app/debrief/internal/auth"
	"github.com/debrief-app/debrief/internal/month"
	"github.com/debrief-app/debrief/internal/service"
)

// EventHandler serves the owner-facing event CRUD endpoints.
type EventHandler struct {
	events    *service.EventService
	weekStart time.Weekday
	logger    *slog.Logger
}

// NewEventHandler creates an EventHandler. weekStart controls how the
// padded month window is aligned (Sunday or Monday, from config).
func NewEventHandler(events *service.EventService, weekStart time.Weekday, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, weekStart: weekStart, logger: logger}
}

// HandleList returns a calendar's events.
//
// HTTP: GET /api/calendars/{calendarID}/events (behind RequireAuth)
//
// Query parameters:
//
//	month=YYYY-MM  restrict to one month (otherwise all events)
//	pad=1          widen the month to whole weeks — what a monthly grid
//	               shows, including the leading/trailing days of the
//	               adjacent months
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	calendarID := chi.URLParam(r, "calendarID")

	from, to, err := h.parseWindow(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "month must be formatted as YYYY-MM",
		})
		return
	}

	events, err := h.events.List(r.Context(), userID, calendarID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// HandleCreate adds an event to a calendar.
//
// HTTP: POST /api/calendars/{calendarID}/events (behind RequireAuth)
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	calendarID := chi.URLParam(r, "calendarID")

	var input service.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	event, err := h.events.Create(r.Context(), userID, calendarID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// HandleUpdate replaces an event's fields.
//
// HTTP: PUT /api/events/{eventID} (behind RequireAuth)
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	eventID := chi.URLParam(r, "eventID")

	var input service.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	event, err := h.events.Update(r.Context(), userID, eventID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// HandleDelete removes an event.
//
// HTTP: DELETE /api/events/{eventID} (behind RequireAuth)
func (h *EventHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	eventID := chi.URLParam(r, "eventID")

	if err := h.events.Delete(r.Context(), userID, eventID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseWindow turns the month/pad query parameters into a [from, to) pair.
// No month parameter means no window (both zero).
func (h *EventHandler) parseWindow(r *http.Request) (time.Time, time.Time, error) {
	monthParam := r.URL.Query().Get("month")
	if monthParam == "" {
		return time.Time{}, time.Time{}, nil
	}

	year, m, err := month.Parse(monthParam)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if r.URL.Query().Get("pad") == "1" {
		from, to := month.Window(year, m, h.weekStart, time.UTC)
		return from, to, nil
	}
	from, to := month.Range(year, m, time.UTC)
	return from, to, nil
}
