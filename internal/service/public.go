package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/debrief-app/debrief/internal/apperror"
	"github.com/debrief-app/debrief/internal/model"
	"github.com/debrief-app/debrief/internal/repository"
)

// AnonymousOwnerName labels a public calendar whose owner can't be loaded or
// has no usable name. Visitors still get the calendar; they just don't learn
// who owns it.
const AnonymousOwnerName = "Anonymous"

// PublicCalendarService resolves shared calendar URLs for anonymous
// visitors.
//
// A share URL carries one identifier that may be either a slug
// ("ada-lovelace") or an opaque public ID (a UUID). The two are
// distinguishable by shape, so one endpoint serves both forms and old links
// keep working after a calendar gains a slug.
type PublicCalendarService struct {
	calendars repository.CalendarRepository
	events    repository.EventRepository
	users     repository.UserRepository
	logger    *slog.Logger
}

// NewPublicCalendarService creates a PublicCalendarService.
func NewPublicCalendarService(
	calendars repository.CalendarRepository,
	events repository.EventRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *PublicCalendarService {
	return &PublicCalendarService{
		calendars: calendars,
		events:    events,
		users:     users,
		logger:    logger,
	}
}

// PublicCalendarView is everything a visitor sees on a shared calendar page:
// the calendar, its events, and the owner's display name.
type PublicCalendarView struct {
	Calendar  *model.Calendar `json:"calendar"`
	Events    []model.Event   `json:"events"`
	OwnerName string          `json:"ownerName"`
}

// Fetch resolves a public calendar by slug or public ID and assembles the
// visitor view. Events may be windowed with from/to (zero values mean
// unbounded).
//
// ERROR POLICY — three tiers:
//   - Calendar not found, or found but private: apperror.ErrNotFound. The
//     two cases are indistinguishable on purpose — a probe must not learn
//     which identifiers exist.
//   - Events fetch failure: fatal. A shared calendar without its events is
//     a broken page, not a degraded one.
//   - Owner lookup failure: non-fatal. The view ships with "Anonymous"
//     rather than failing a working calendar over a cosmetic field.
func (s *PublicCalendarService) Fetch(ctx context.Context, identifier string, from, to time.Time) (*PublicCalendarView, error) {
	cal, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListByCalendar(ctx, cal.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("service/public: loading events for calendar %s: %w", cal.ID, err)
	}

	return &PublicCalendarView{
		Calendar:  cal,
		Events:    events,
		OwnerName: s.ownerName(ctx, cal.OwnerID),
	}, nil
}

// resolve maps an identifier to a public calendar.
//
// A UUID-shaped identifier is treated as a public ID and skips the slug
// query — generated public IDs are UUIDs and generated slugs never are.
// Anything else is tried as a slug first, then falls through to the public
// ID lookup, so links minted before slugs existed still resolve.
func (s *PublicCalendarService) resolve(ctx context.Context, identifier string) (*model.Calendar, error) {
	if identifier == "" {
		return nil, apperror.NotFound("calendar", identifier)
	}

	if _, err := uuid.Parse(identifier); err == nil {
		return s.calendars.GetPublicByPublicID(ctx, identifier)
	}

	cal, err := s.calendars.GetPublicBySlug(ctx, identifier)
	if err == nil {
		return cal, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) && !errors.Is(err, apperror.ErrSchemaDrift) {
		return nil, fmt.Errorf("service/public: resolving slug %q: %w", identifier, err)
	}

	return s.calendars.GetPublicByPublicID(ctx, identifier)
}

// ownerName loads the owner's display name, degrading to Anonymous on any
// failure.
func (s *PublicCalendarService) ownerName(ctx context.Context, ownerID string) string {
	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		s.logger.Warn("could not load calendar owner for public view",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return AnonymousOwnerName
	}
	return owner.DisplayNameOr(AnonymousOwnerName)
}
