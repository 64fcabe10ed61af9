package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/debrief-app/debrief/internal/apperror"
	"github.com/debrief-app/debrief/internal/model"
	"github.com/debrief-app/debrief/internal/repository"
)

const (
	MaxEventTitleLength       = 200
	MaxEventDescriptionLength = 2000
)

// EventService handles business logic for calendar events.
//
// Every mutating operation checks ownership: the event's calendar must
// belong to the caller. The check lives here, not in the handler, so no
// future caller can forget it.
type EventService struct {
	events    repository.EventRepository
	calendars repository.CalendarRepository
	logger    *slog.Logger
}

// NewEventService creates an EventService.
func NewEventService(
	events repository.EventRepository,
	calendars repository.CalendarRepository,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		events:    events,
		calendars: calendars,
		logger:    logger,
	}
}

// EventInput carries the client-supplied fields for create and update.
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	ImageURL    string    `json:"imageUrl"`
	Color       string    `json:"color"`
}

func (in *EventInput) validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperror.ValidationFailed("title", "event title is required")
	}
	if len(title) > MaxEventTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("event title must be %d characters or less", MaxEventTitleLength))
	}
	if len(in.Description) > MaxEventDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxEventDescriptionLength))
	}
	if in.StartTime.IsZero() {
		return apperror.ValidationFailed("startTime", "event start time is required")
	}
	if !in.EndTime.IsZero() && in.EndTime.Before(in.StartTime) {
		return apperror.ValidationFailed("endTime", "event end time must not be before start time")
	}
	return nil
}

// Create validates and saves a new event on the given calendar.
func (s *EventService) Create(ctx context.Context, ownerID, calendarID string, input EventInput) (*model.Event, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.requireOwnership(ctx, ownerID, calendarID); err != nil {
		return nil, err
	}

	event := &model.Event{
		CalendarID:  calendarID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Color:       strings.TrimSpace(input.Color),
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("service/event: creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("eventID", event.ID),
		slog.String("calendarID", calendarID),
	)

	return event, nil
}

// List returns the calendar's events, optionally windowed by [from, to).
// The caller must own the calendar.
func (s *EventService) List(ctx context.Context, ownerID, calendarID string, from, to time.Time) ([]model.Event, error) {
	if err := s.requireOwnership(ctx, ownerID, calendarID); err != nil {
		return nil, err
	}

	events, err := s.events.ListByCalendar(ctx, calendarID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service/event: listing events for calendar %s: %w", calendarID, err)
	}

	return events, nil
}

// Update validates and saves changes to an existing event.
func (s *EventService) Update(ctx context.Context, ownerID, eventID string, input EventInput) (*model.Event, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("service/event: loading event %s: %w", eventID, err)
	}
	if err := s.requireOwnership(ctx, ownerID, event.CalendarID); err != nil {
		return nil, err
	}

	event.Title = strings.TrimSpace(input.Title)
	event.Description = strings.TrimSpace(input.Description)
	event.StartTime = input.StartTime
	event.EndTime = input.EndTime
	event.ImageURL = strings.TrimSpace(input.ImageURL)
	event.Color = strings.TrimSpace(input.Color)

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("service/event: updating event %s: %w", eventID, err)
	}

	return event, nil
}

// Delete removes an event owned by the caller.
func (s *EventService) Delete(ctx context.Context, ownerID, eventID string) error {
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("service/event: loading event %s: %w", eventID, err)
	}
	if err := s.requireOwnership(ctx, ownerID, event.CalendarID); err != nil {
		return err
	}

	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("service/event: deleting event %s: %w", eventID, err)
	}

	s.logger.Info("event deleted",
		slog.String("eventID", eventID),
		slog.String("calendarID", event.CalendarID),
	)

	return nil
}

// requireOwnership verifies that the calendar exists and belongs to ownerID.
func (s *EventService) requireOwnership(ctx context.Context, ownerID, calendarID string) error {
	cal, err := s.calendars.GetCalendarByID(ctx, calendarID)
	if err != nil {
		return fmt.Errorf("service/event: loading calendar %s: %w", calendarID, err)
	}
	if cal.OwnerID != ownerID {
		return apperror.Forbidden("calendar belongs to another user")
	}
	return nil
}
