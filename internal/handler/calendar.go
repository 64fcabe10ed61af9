package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/debrief-app/debrief/internal/auth"
	"github.com/debrief-app/debrief/internal/service"
)

// CalendarHandler serves the owner-facing calendar endpoints.
type CalendarHandler struct {
	calendars *service.CalendarService
	logger    *slog.Logger
}

// NewCalendarHandler creates a CalendarHandler.
func NewCalendarHandler(calendars *service.CalendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{calendars: calendars, logger: logger}
}

// HandleGetDefault returns the caller's default calendar, provisioning it on
// first access.
//
// HTTP: GET /api/calendar (behind RequireAuth)
func (h *CalendarHandler) HandleGetDefault(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	cal, err := h.calendars.GetDefaultCalendar(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cal)
}

// HandleUpdateSettings applies a settings patch to the caller's calendar.
//
// HTTP: PATCH /api/calendars/{calendarID} (behind RequireAuth)
//
// The body is a partial document — absent fields stay untouched:
//
//	{"title": "Dinner Club", "isPublic": true, "slug": "dinner-club"}
func (h *CalendarHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	calendarID := chi.URLParam(r, "calendarID")

	var update service.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	cal, err := h.calendars.UpdateSettings(r.Context(), userID, calendarID, update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cal)
}

// HandleCheckSlug reports whether a slug is free to claim. Backs the live
// availability indicator in the settings form.
//
// HTTP: GET /api/slugs/check?slug=ada-lovelace (behind RequireAuth)
func (h *CalendarHandler) HandleCheckSlug(w http.ResponseWriter, r *http.Request) {
	candidate := r.URL.Query().Get("slug")

	available, err := h.calendars.CheckSlug(r.Context(), candidate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"slug":      candidate,
		"available": available,
	})
}
