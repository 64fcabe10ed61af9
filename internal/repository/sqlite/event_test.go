package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/debrief-app/debrief/internal/apperror"
	"github.com/debrief-app/debrief/internal/model"
)

func createTestEvent(t *testing.T, db *DB, calendarID string, title string, start time.Time) *model.Event {
	t.Helper()
	event := &model.Event{
		CalendarID: calendarID,
		Title:      title,
		StartTime:  start,
	}
	if err := db.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("failed to create test event: %v", err)
	}
	return event
}

func TestEventCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")
	cal := createTestCalendar(t, db, user.ID, nil)

	start := time.Date(2026, time.August, 28, 19, 0, 0, 0, time.UTC)
	event := &model.Event{
		CalendarID:  cal.ID,
		Title:       "Team dinner",
		Description: "Quarterly debrief over food",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		Color:       "#ff8800",
	}
	if err := db.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if event.ID == "" {
		t.Error("Create() did not set event.ID")
	}

	got, err := db.GetEventByID(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetEventByID() error = %v", err)
	}
	if got.Title != "Team dinner" || got.Color != "#ff8800" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.StartTime.Equal(start) {
		t.Errorf("StartTime = %v, want %v", got.StartTime, start)
	}
	if !got.EndTime.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("EndTime = %v, want %v", got.EndTime, start.Add(2*time.Hour))
	}
}

func TestEventCreate_NoEndTime(t *testing.T) {
	// end_time is nullable; a zero time must round-trip as a zero time, not
	// as some epoch artifact.
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")
	cal := createTestCalendar(t, db, user.ID, nil)

	event := createTestEvent(t, db, cal.ID, "open ended", time.Now().UTC())

	got, err := db.GetEventByID(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetEventByID() error = %v", err)
	}
	if !got.EndTime.IsZero() {
		t.Errorf("EndTime = %v, want zero", got.EndTime)
	}
}

func TestListByCalendar_OrderAndWindow(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")
	cal := createTestCalendar(t, db, user.ID, nil)
	other := createTestCalendar(t, db, user.ID, func(c *model.Calendar) { c.IsDefault = false })

	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	// Inserted out of order on purpose.
	createTestEvent(t, db, cal.ID, "mid", base.AddDate(0, 0, 14))
	createTestEvent(t, db, cal.ID, "first", base)
	createTestEvent(t, db, cal.ID, "last", base.AddDate(0, 0, 29))
	createTestEvent(t, db, other.ID, "other calendar", base.AddDate(0, 0, 5))

	ctx := context.Background()

	all, err := db.ListByCalendar(ctx, cal.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListByCalendar() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListByCalendar() returned %d events, want 3", len(all))
	}
	for i, want := range []string{"first", "mid", "last"} {
		if all[i].Title != want {
			t.Errorf("events[%d].Title = %q, want %q", i, all[i].Title, want)
		}
	}

	// Half-open window [from, to): the "to" boundary is excluded.
	from := base.AddDate(0, 0, 10)
	to := base.AddDate(0, 0, 29)
	windowed, err := db.ListByCalendar(ctx, cal.ID, from, to)
	if err != nil {
		t.Fatalf("ListByCalendar(window) error = %v", err)
	}
	if len(windowed) != 1 || windowed[0].Title != "mid" {
		t.Errorf("windowed = %v, want just %q", windowed, "mid")
	}
}

func TestListByCalendar_Empty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")
	cal := createTestCalendar(t, db, user.ID, nil)

	events, err := db.ListByCalendar(context.Background(), cal.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListByCalendar() error = %v", err)
	}
	// An empty calendar returns an empty slice, not nil — it serializes as
	// [] rather than null.
	if events == nil {
		t.Error("ListByCalendar() = nil, want empty slice")
	}
	if len(events) != 0 {
		t.Errorf("ListByCalendar() returned %d events, want 0", len(events))
	}
}

func TestUpdateEvent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")
	cal := createTestCalendar(t, db, user.ID, nil)
	event := createTestEvent(t, db, cal.ID, "before", time.Now().UTC())

	event.Title = "after"
	event.Color = "#00ff00"
	if err := db.UpdateEvent(context.Background(), event); err != nil {
		t.Fatalf("UpdateEvent() error = %v", err)
	}

	got, err := db.GetEventByID(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetEventByID() error = %v", err)
	}
	if got.Title != "after" || got.Color != "#00ff00" {
		t.Errorf("UpdateEvent() not persisted: %+v", got)
	}
}

func TestUpdateEvent_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateEvent(context.Background(), &model.Event{ID: "nonexistent", Title: "x", StartTime: time.Now()})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateEvent() on missing event error = %v, want ErrNotFound", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "Ada", "ada@example.com")
	cal := createTestCalendar(t, db, user.ID, nil)
	event := createTestEvent(t, db, cal.ID, "doomed", time.Now().UTC())

	if err := db.DeleteEvent(context.Background(), event.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}

	_, err := db.GetEventByID(context.Background(), event.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetEventByID() after delete error = %v, want ErrNotFound", err)
	}

	err = db.DeleteEvent(context.Background(), event.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteEvent() twice error = %v, want ErrNotFound", err)
	}
}
