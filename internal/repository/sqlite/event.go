package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/debrief-app/debrief/internal/apperror"
	"github.com/debrief-app/debrief/internal/model"
	"github.com/debrief-app/debrief/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

const eventColumns = `id, calendar_id, title, description, start_time, end_time, image_url, color, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var endTime sql.NullTime
	err := row.Scan(
		&e.ID,
		&e.CalendarID,
		&e.Title,
		&e.Description,
		&e.StartTime,
		&endTime,
		&e.ImageURL,
		&e.Color,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.EndTime = endTime.Time
	return &e, nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// CreateEvent inserts a new event, generating its ID and timestamps in place.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	event.ID = xid.New().String()

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.CalendarID,
		event.Title,
		event.Description,
		event.StartTime,
		nullableTime(event.EndTime),
		event.ImageURL,
		event.Color,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	return nil
}

// GetEventByID retrieves a single event.
func (db *DB) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(db.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}
	return e, nil
}

// ListByCalendar returns the calendar's events ordered by start time
// ascending. Non-zero from/to bounds restrict to start_time in [from, to) —
// that's what the month view uses.
func (db *DB) ListByCalendar(ctx context.Context, calendarID string, from, to time.Time) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE calendar_id = ?`
	args := []any{calendarID}

	if !from.IsZero() {
		query += ` AND start_time >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND start_time < ?`
		args = append(args, to)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events for calendar %s: %w", calendarID, err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	return events, nil
}

// UpdateEvent saves an event's mutable fields.
// RowsAffected tells us whether the row existed at all — 0 means not found,
// cheaper than a SELECT-then-UPDATE round trip.
func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, description = ?, start_time = ?, end_time = ?, image_url = ?, color = ?, updated_at = ?
		 WHERE id = ?`,
		event.Title,
		event.Description,
		event.StartTime,
		nullableTime(event.EndTime),
		event.ImageURL,
		event.Color,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating event %s: %w", event.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("event", event.ID)
	}

	return nil
}

// DeleteEvent removes an event by ID. Same RowsAffected pattern as update.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM events WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting event %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("event", id)
	}

	return nil
}
