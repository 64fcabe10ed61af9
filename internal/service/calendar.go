package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/debrief-app/debrief/internal/apperror"
	"github.com/debrief-app/debrief/internal/model"
	"github.com/debrief-app/debrief/internal/repository"
	"github.com/debrief-app/debrief/internal/slug"
)

// Defaults for a freshly provisioned calendar.
const (
	DefaultCalendarTitle       = "My Calendar"
	DefaultCalendarDescription = "Default calendar for events"

	MaxCalendarTitleLength       = 100
	MaxCalendarDescriptionLength = 500
)

// CalendarService owns calendar provisioning and settings.
//
// PROVISIONING:
// A user's default calendar is created lazily — the first time anything asks
// for it — rather than at sign-up. That keeps registration a single write
// and makes the calendar self-healing: if it was somehow never created, the
// next request creates it.
//
// Lazy creation invites races: the browser fires two API calls on first
// load, both see "no calendar", both try to create one. Two layers defend
// against that:
//
//  1. In-process, concurrent provisioning calls for the same owner are
//     coalesced — one goroutine does the work, the rest wait for its result.
//  2. Cross-process, the database's partial unique index (one default per
//     owner) rejects the second insert; the loser re-reads and returns the
//     winner's calendar.
type CalendarService struct {
	calendars repository.CalendarRepository
	users     repository.UserRepository
	slugs     *slug.Resolver
	logger    *slog.Logger

	// assignSlugAtCreation controls when a provisioned calendar gets its
	// slug: at creation time (shareable immediately) or deferred until the
	// calendar is first made public (no name leakage before sharing).
	assignSlugAtCreation bool

	mu       sync.Mutex
	inflight map[string]*provisionCall
}

// provisionCall is one in-progress provisioning attempt. Followers wait on
// done and then read cal/err; both are written exactly once, before close.
type provisionCall struct {
	done chan struct{}
	cal  *model.Calendar
	err  error
}

// NewCalendarService creates a CalendarService.
func NewCalendarService(
	calendars repository.CalendarRepository,
	users repository.UserRepository,
	slugs *slug.Resolver,
	assignSlugAtCreation bool,
	logger *slog.Logger,
) *CalendarService {
	return &CalendarService{
		calendars:            calendars,
		users:                users,
		slugs:                slugs,
		logger:               logger,
		assignSlugAtCreation: assignSlugAtCreation,
		inflight:             make(map[string]*provisionCall),
	}
}

// GetDefaultCalendar returns the owner's default calendar, creating it if it
// doesn't exist yet. Safe to call concurrently for the same owner.
func (s *CalendarService) GetDefaultCalendar(ctx context.Context, ownerID string) (*model.Calendar, error) {
	if ownerID == "" {
		return nil, apperror.Unauthenticated("a signed-in user is required")
	}

	cal, err := s.lookupDefault(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if cal != nil {
		return cal, nil
	}

	return s.provisionOnce(ctx, ownerID)
}

// lookupDefault returns the owner's default calendar or nil if none exists.
//
// Duplicate defaults (rows that predate the unique index) resolve to the
// oldest one — every caller sees the same winner, so the user's view is
// stable even before the duplicates are cleaned up.
func (s *CalendarService) lookupDefault(ctx context.Context, ownerID string) (*model.Calendar, error) {
	defaults, err := s.calendars.ListDefaults(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/calendar: looking up default for %s: %w", ownerID, err)
	}
	if len(defaults) == 0 {
		return nil, nil
	}
	if len(defaults) > 1 {
		s.logger.Warn("multiple default calendars, using oldest",
			slog.String("ownerID", ownerID),
			slog.Int("count", len(defaults)),
		)
	}
	return &defaults[0], nil
}

// provisionOnce coalesces concurrent provisioning for one owner: the first
// caller creates, everyone else waits and shares the result.
func (s *CalendarService) provisionOnce(ctx context.Context, ownerID string) (*model.Calendar, error) {
	s.mu.Lock()
	if call, ok := s.inflight[ownerID]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.cal, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &provisionCall{done: make(chan struct{})}
	s.inflight[ownerID] = call
	s.mu.Unlock()

	call.cal, call.err = s.provision(ctx, ownerID)
	close(call.done)

	s.mu.Lock()
	delete(s.inflight, ownerID)
	s.mu.Unlock()

	return call.cal, call.err
}

// provision creates the default calendar for an owner.
//
// On a uniqueness conflict — another process won the race — it re-reads and
// returns the winner's calendar instead of failing the request.
func (s *CalendarService) provision(ctx context.Context, ownerID string) (*model.Calendar, error) {
	cal := &model.Calendar{
		OwnerID:     ownerID,
		Title:       DefaultCalendarTitle,
		Description: DefaultCalendarDescription,
		IsDefault:   true,
		PublicID:    uuid.NewString(),
	}

	if s.assignSlugAtCreation {
		cal.Slug = s.slugs.GenerateUnique(ctx, s.slugSeed(ctx, ownerID, cal.Title))
	}

	err := s.calendars.Create(ctx, cal)
	if err == nil {
		s.logger.Info("provisioned default calendar",
			slog.String("ownerID", ownerID),
			slog.String("calendarID", cal.ID),
			slog.String("slug", cal.Slug),
		)
		return cal, nil
	}

	if errors.Is(err, apperror.ErrConflict) {
		// Another process may have won the race; a single re-read decides.
		// If the re-read finds nothing the conflict had some other cause and
		// the operation fails — no second insert attempt.
		existing, lookupErr := s.lookupDefault(ctx, ownerID)
		if lookupErr == nil && existing != nil {
			s.logger.Info("lost provisioning race, using existing calendar",
				slog.String("ownerID", ownerID),
				slog.String("calendarID", existing.ID),
			)
			return existing, nil
		}
	}

	return nil, apperror.Provisioning(
		fmt.Sprintf("creating default calendar for %s", ownerID), err)
}

// slugSeed derives the base slug for a new calendar from its owner's display
// name. A failed user lookup is not fatal — the generic seed still produces
// a working slug.
func (s *CalendarService) slugSeed(ctx context.Context, ownerID, title string) string {
	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		s.logger.Warn("could not load owner for slug seed",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return slug.FromName("", title)
	}
	return slug.FromName(owner.DisplayNameOr("user"), title)
}

// SettingsUpdate carries the fields a PATCH may change. Pointer fields
// distinguish "not sent" (nil) from "set to zero value".
type SettingsUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
	Slug        *string `json:"slug"`
}

// UpdateSettings applies a settings patch to the owner's calendar.
//
// Slug rules:
//   - An explicit slug must pass the local shape check and be available;
//     taken slugs come back as a conflict, not silently suffixed — the user
//     asked for that exact slug.
//   - Making a calendar public that has no slug yet generates one from the
//     owner's display name (the deferred half of assign_slug_at_creation).
func (s *CalendarService) UpdateSettings(ctx context.Context, ownerID, calendarID string, update SettingsUpdate) (*model.Calendar, error) {
	cal, err := s.calendars.GetCalendarByID(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("service/calendar: loading calendar %s: %w", calendarID, err)
	}
	if cal.OwnerID != ownerID {
		return nil, apperror.Forbidden("calendar belongs to another user")
	}

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "calendar title is required")
		}
		if len(title) > MaxCalendarTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("calendar title must be %d characters or less", MaxCalendarTitleLength))
		}
		cal.Title = title
	}

	if update.Description != nil {
		desc := strings.TrimSpace(*update.Description)
		if len(desc) > MaxCalendarDescriptionLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("description must be %d characters or less", MaxCalendarDescriptionLength))
		}
		cal.Description = desc
	}

	if update.Slug != nil {
		requested := strings.TrimSpace(*update.Slug)
		if requested != "" && requested != cal.Slug {
			if !slug.IsValid(requested) {
				return nil, apperror.ValidationFailed("slug",
					fmt.Sprintf("slug must be %d-%d characters of lowercase letters, digits, and hyphens",
						slug.MinLength, slug.MaxLength))
			}
			available, err := s.slugs.IsAvailable(ctx, requested)
			if err != nil {
				return nil, fmt.Errorf("service/calendar: checking slug %q: %w", requested, err)
			}
			if !available {
				return nil, apperror.Conflict("calendar", "slug")
			}
			cal.Slug = requested
		}
	}

	if update.IsPublic != nil {
		cal.IsPublic = *update.IsPublic
	}

	// Going public without a slug: generate one now so the share URL is
	// human-readable from the first moment.
	if cal.IsPublic && cal.Slug == "" {
		cal.Slug = s.slugs.GenerateUnique(ctx, s.slugSeed(ctx, ownerID, cal.Title))
	}

	if err := s.calendars.Update(ctx, cal); err != nil {
		return nil, fmt.Errorf("service/calendar: saving calendar %s: %w", calendarID, err)
	}

	s.logger.Info("calendar settings updated",
		slog.String("calendarID", cal.ID),
		slog.Bool("isPublic", cal.IsPublic),
		slog.String("slug", cal.Slug),
	)

	return cal, nil
}

// CheckSlug reports whether a slug could be claimed right now. Backs the
// live availability indicator in the settings form.
func (s *CalendarService) CheckSlug(ctx context.Context, candidate string) (bool, error) {
	return s.slugs.IsAvailable(ctx, strings.TrimSpace(candidate))
}
