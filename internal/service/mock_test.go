package service

// Hand-written in-memory mocks for the repository interfaces. The services
// only see the interfaces, so these swap in for *sqlite.DB without the
// services knowing. Error fields let tests simulate store failures that a
// real database would rarely produce on cue.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/debrief-app/debrief/internal/apperror"
	"github.com/debrief-app/debrief/internal/model"
	"github.com/debrief-app/debrief/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- users ---

type mockUserRepo struct {
	users  map[string]*model.User
	getErr error
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(u *model.User) *model.User {
	stored := *u
	m.users[u.ID] = &stored
	return &stored
}

func (m *mockUserRepo) Upsert(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID != 0 && u.GitHubID == user.GitHubID {
			user.ID = u.ID
			m.add(user)
			return nil
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.add(user)
	return nil
}

func (m *mockUserRepo) CreateWithPassword(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email != "" && u.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.add(user)
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email != "" && u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

// --- calendars ---

type mockCalendarRepo struct {
	mu        sync.Mutex
	calendars map[string]*model.Calendar
	nextID    int

	createErr   error   // returned by Create once per call while set
	createCalls int     // how many times Create ran
	createDelay func()  // hook to widen race windows in concurrency tests
	slugCalls   []string // identifiers passed to GetPublicBySlug
}

var _ repository.CalendarRepository = (*mockCalendarRepo)(nil)

func newMockCalendarRepo() *mockCalendarRepo {
	return &mockCalendarRepo{calendars: make(map[string]*model.Calendar)}
}

func (m *mockCalendarRepo) add(c *model.Calendar) *model.Calendar {
	stored := *c
	m.calendars[c.ID] = &stored
	return &stored
}

func (m *mockCalendarRepo) Create(_ context.Context, cal *model.Calendar) error {
	m.mu.Lock()
	m.createCalls++
	delay := m.createDelay
	m.mu.Unlock()

	if delay != nil {
		delay()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	for _, c := range m.calendars {
		if cal.Slug != "" && c.Slug == cal.Slug {
			return apperror.Conflict("calendar", "slug")
		}
		if cal.IsDefault && c.IsDefault && c.OwnerID == cal.OwnerID {
			return apperror.Conflict("calendar", "owner_id")
		}
	}
	m.nextID++
	cal.ID = fmt.Sprintf("cal-%d", m.nextID)
	cal.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	m.add(cal)
	return nil
}

func (m *mockCalendarRepo) GetCalendarByID(_ context.Context, id string) (*model.Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calendars[id]
	if !ok {
		return nil, apperror.NotFound("calendar", id)
	}
	result := *c
	return &result, nil
}

func (m *mockCalendarRepo) ListDefaults(_ context.Context, ownerID string) ([]model.Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Calendar
	for _, c := range m.calendars {
		if c.OwnerID == ownerID && c.IsDefault {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockCalendarRepo) GetPublicBySlug(_ context.Context, slug string) (*model.Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slugCalls = append(m.slugCalls, slug)
	for _, c := range m.calendars {
		if c.Slug == slug && c.IsPublic {
			result := *c
			return &result, nil
		}
	}
	return nil, apperror.NotFound("calendar", slug)
}

func (m *mockCalendarRepo) GetPublicByPublicID(_ context.Context, publicID string) (*model.Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calendars {
		if c.PublicID == publicID && c.IsPublic {
			result := *c
			return &result, nil
		}
	}
	return nil, apperror.NotFound("calendar", publicID)
}

func (m *mockCalendarRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calendars {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCalendarRepo) Update(_ context.Context, cal *model.Calendar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.calendars[cal.ID]; !ok {
		return apperror.NotFound("calendar", cal.ID)
	}
	for _, c := range m.calendars {
		if c.ID != cal.ID && cal.Slug != "" && c.Slug == cal.Slug {
			return apperror.Conflict("calendar", "slug")
		}
	}
	m.add(cal)
	return nil
}

// --- events ---

type mockEventRepo struct {
	events  map[string]*model.Event
	nextID  int
	listErr error
}

var _ repository.EventRepository = (*mockEventRepo)(nil)

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[string]*model.Event)}
}

func (m *mockEventRepo) CreateEvent(_ context.Context, event *model.Event) error {
	m.nextID++
	event.ID = fmt.Sprintf("event-%d", m.nextID)
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *mockEventRepo) GetEventByID(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, apperror.NotFound("event", id)
	}
	result := *e
	return &result, nil
}

func (m *mockEventRepo) ListByCalendar(_ context.Context, calendarID string, from, to time.Time) ([]model.Event, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]model.Event, 0)
	for _, e := range m.events {
		if e.CalendarID != calendarID {
			continue
		}
		if !from.IsZero() && e.StartTime.Before(from) {
			continue
		}
		if !to.IsZero() && !e.StartTime.Before(to) {
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

func (m *mockEventRepo) UpdateEvent(_ context.Context, event *model.Event) error {
	if _, ok := m.events[event.ID]; !ok {
		return apperror.NotFound("event", event.ID)
	}
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *mockEventRepo) DeleteEvent(_ context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return apperror.NotFound("event", id)
	}
	delete(m.events, id)
	return nil
}
