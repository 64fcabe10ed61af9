package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/go-chi/chi/v5"

	"github.com/debrief-app/debrief/internal/month"
	"github.com/debrief-app/debrief/internal/service"
)

// PublicHandler serves shared calendars to anonymous visitors: a JSON view
// for the web page and an iCalendar feed for subscription in calendar apps.
type PublicHandler struct {
	public    *service.PublicCalendarService
	baseURL   string
	weekStart time.Weekday
	logger    *slog.Logger
}

// NewPublicHandler creates a PublicHandler. baseURL is used for the URL
// property in the ICS feed.
func NewPublicHandler(public *service.PublicCalendarService, baseURL string, weekStart time.Weekday, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{public: public, baseURL: baseURL, weekStart: weekStart, logger: logger}
}

// HandleGet returns the public view of a shared calendar.
//
// HTTP: GET /api/public/calendars/{identifier}
//
// identifier is a slug or an opaque public ID; both forms resolve. The
// optional month/pad query parameters window the events the same way the
// owner's event listing does.
func (h *PublicHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	from, to, err := h.parseWindow(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "month must be formatted as YYYY-MM",
		})
		return
	}

	view, err := h.public.Fetch(r.Context(), identifier, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleICS serves a shared calendar as an iCalendar (RFC 5545) feed, so
// visitors can subscribe from Google Calendar, Apple Calendar, etc.
//
// HTTP: GET /api/public/calendars/{identifier}/feed.ics
//
// The feed always carries the full event list — subscription clients do
// their own windowing and refresh on their own schedule.
func (h *PublicHandler) HandleICS(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	view, err := h.public.Fetch(r.Context(), identifier, time.Time{}, time.Time{})
	if err != nil {
		writeError(w, err)
		return
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Debrief//Calendar//EN")
	cal.SetXWRCalName(view.Calendar.Title)
	if view.Calendar.Description != "" {
		cal.SetXWRCalDesc(view.Calendar.Description)
	}

	for _, event := range view.Events {
		e := cal.AddEvent(fmt.Sprintf("%s@debrief", event.ID))
		e.SetDtStampTime(event.UpdatedAt)
		e.SetCreatedTime(event.CreatedAt)
		e.SetModifiedAt(event.UpdatedAt)
		e.SetStartAt(event.StartTime)
		if !event.EndTime.IsZero() {
			e.SetEndAt(event.EndTime)
		}
		e.SetSummary(event.Title)
		if event.Description != "" {
			e.SetDescription(event.Description)
		}
		e.SetURL(h.baseURL + view.Calendar.PublicPath())
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		h.logger.Error("failed to write ICS feed", slog.String("error", err.Error()))
	}
}

func (h *PublicHandler) parseWindow(r *http.Request) (time.Time, time.Time, error) {
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
