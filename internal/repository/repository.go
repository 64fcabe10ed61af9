// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the concrete implementation;
// tests substitute in-memory fakes.
//
// ERROR CHANNEL (shared by all implementations):
//   - "no matching row" → apperror.ErrNotFound (an expected outcome, not a
//     transport failure — callers branch on it)
//   - missing column/table (schema drift) → apperror.ErrSchemaDrift
//   - uniqueness violation → apperror.ErrConflict
//   - anything else propagates wrapped as a genuine store failure
package repository

import (
	"context"
	"time"

	"github.com/debrief-app/debrief/internal/model"
)

type UserRepository interface {
	// Upsert inserts or updates a user keyed by GitHub ID. On return the
	// user's internal ID and timestamps are populated.
	Upsert(ctx context.Context, user *model.User) error

	// CreateWithPassword inserts a password-based account. Returns
	// apperror.ErrConflict if the email is already registered.
	CreateWithPassword(ctx context.Context, user *model.User) error

	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type CalendarRepository interface {
	// Create inserts a calendar, generating its internal ID and timestamps.
	// Uniqueness violations (slug, public_id, or a second default for the
	// same owner) surface as apperror.ErrConflict.
	Create(ctx context.Context, cal *model.Calendar) error

	GetCalendarByID(ctx context.Context, id string) (*model.Calendar, error)

	// ListDefaults returns every default calendar for the owner, oldest
	// first. More than one element means a historical race left duplicate
	// defaults behind; callers apply the oldest-wins policy.
	ListDefaults(ctx context.Context, ownerID string) ([]model.Calendar, error)

	// GetPublicBySlug and GetPublicByPublicID resolve public calendars only:
	// a private calendar is indistinguishable from a missing one
	// (apperror.ErrNotFound either way).
	GetPublicBySlug(ctx context.Context, slug string) (*model.Calendar, error)
	GetPublicByPublicID(ctx context.Context, publicID string) (*model.Calendar, error)

	// SlugExists reports whether any calendar (public or not) holds the slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	Update(ctx context.Context, cal *model.Calendar) error
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEventByID(ctx context.Context, id string) (*model.Event, error)

	// ListByCalendar returns the calendar's events ordered by start time
	// ascending. A non-zero from/to restricts to start_time in [from, to).
	ListByCalendar(ctx context.Context, calendarID string, from, to time.Time) ([]model.Event, error)

	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id string) error
}
