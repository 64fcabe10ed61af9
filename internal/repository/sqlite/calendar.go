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

var _ repository.CalendarRepository = (*DB)(nil)

const calendarColumns = `id, owner_id, title, description, is_default, is_public, public_id, slug, created_at, updated_at`

func scanCalendar(row interface{ Scan(...any) error }) (*model.Calendar, error) {
	var c model.Calendar
	var slugCol sql.NullString
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Title,
		&c.Description,
		&c.IsDefault,
		&c.IsPublic,
		&c.PublicID,
		&slugCol,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Slug = slugCol.String
	return &c, nil
}

// nullableSlug stores NULL for slug-less calendars. The UNIQUE constraint
// on slug then only applies to assigned slugs — any number of calendars may
// be waiting for their first make-public action.
func nullableSlug(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new calendar.
//
// Uniqueness violations — slug already taken, or the partial unique index
// that allows only one default calendar per owner — come back as
// apperror.ErrConflict. The provisioner treats that conflict as "someone
// else already created it" and re-reads; that makes the database constraint
// the single arbiter of cross-process provisioning races.
func (db *DB) Create(ctx context.Context, cal *model.Calendar) error {
	cal.ID = xid.New().String()

	now := time.Now()
	cal.CreatedAt = now
	cal.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO calendars (`+calendarColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cal.ID,
		cal.OwnerID,
		cal.Title,
		cal.Description,
		cal.IsDefault,
		cal.IsPublic,
		cal.PublicID,
		nullableSlug(cal.Slug),
		cal.CreatedAt,
		cal.UpdatedAt,
	)
	if err != nil {
		if terr := translateConstraint(err, "calendar", "slug"); terr != err {
			return terr
		}
		return fmt.Errorf("sqlite: creating calendar: %w", err)
	}

	return nil
}

// GetCalendarByID retrieves a calendar by its internal ID, public or not.
func (db *DB) GetCalendarByID(ctx context.Context, id string) (*model.Calendar, error) {
	c, err := scanCalendar(db.conn.QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("calendar", id)
		}
		return nil, fmt.Errorf("sqlite: getting calendar %s: %w", id, err)
	}
	return c, nil
}

// ListDefaults returns all default calendars for the owner, oldest first.
//
// The schema's partial unique index means a healthy database returns at
// most one row; rows created before the index existed can still produce
// duplicates, which is why this is a list and not a single lookup — the
// caller's oldest-wins policy needs to see them all.
func (db *DB) ListDefaults(ctx context.Context, ownerID string) ([]model.Calendar, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+calendarColumns+`
		 FROM calendars
		 WHERE owner_id = ? AND is_default = 1
		 ORDER BY created_at ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing default calendars for %s: %w", ownerID, err)
	}
	defer rows.Close()

	var calendars []model.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning calendar row: %w", err)
		}
		calendars = append(calendars, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating calendars: %w", err)
	}

	return calendars, nil
}

// GetPublicBySlug resolves a public calendar by slug. Private calendars are
// reported exactly like missing ones — the public lookup path must not leak
// which slugs exist.
//
// A database without the slug column yet (schema drift) surfaces as
// apperror.ErrSchemaDrift so the caller can degrade open.
func (db *DB) GetPublicBySlug(ctx context.Context, slug string) (*model.Calendar, error) {
	c, err := scanCalendar(db.conn.QueryRowContext(ctx,
		`SELECT `+calendarColumns+`
		 FROM calendars
		 WHERE slug = ? AND is_public = 1`,
		slug,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("calendar", slug)
		}
		if isSchemaDrift(err) {
			return nil, apperror.SchemaDrift("slug column missing", err)
		}
		return nil, fmt.Errorf("sqlite: getting calendar by slug %s: %w", slug, err)
	}
	return c, nil
}

// GetPublicByPublicID resolves a public calendar by its opaque public ID,
// with the same private-equals-missing semantics as GetPublicBySlug.
func (db *DB) GetPublicByPublicID(ctx context.Context, publicID string) (*model.Calendar, error) {
	c, err := scanCalendar(db.conn.QueryRowContext(ctx,
		`SELECT `+calendarColumns+`
		 FROM calendars
		 WHERE public_id = ? AND is_public = 1`,
		publicID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("calendar", publicID)
		}
		return nil, fmt.Errorf("sqlite: getting calendar by public_id %s: %w", publicID, err)
	}
	return c, nil
}

// SlugExists reports whether any calendar, public or private, already
// carries the slug. Schema drift surfaces as apperror.ErrSchemaDrift for
// the resolver's degrade-open policy.
func (db *DB) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM calendars WHERE slug = ?`, slug,
	).Scan(&count)
	if err != nil {
		if isSchemaDrift(err) {
			return false, apperror.SchemaDrift("slug column missing", err)
		}
		return false, fmt.Errorf("sqlite: checking slug %s: %w", slug, err)
	}
	return count > 0, nil
}

// Update saves the calendar's mutable fields (title, description,
// visibility, slug). A slug collision surfaces as apperror.ErrConflict.
func (db *DB) Update(ctx context.Context, cal *model.Calendar) error {
	cal.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE calendars
		 SET title = ?, description = ?, is_public = ?, slug = ?, updated_at = ?
		 WHERE id = ?`,
		cal.Title,
		cal.Description,
		cal.IsPublic,
		nullableSlug(cal.Slug),
		cal.UpdatedAt,
		cal.ID,
	)
	if err != nil {
		if terr := translateConstraint(err, "calendar", "slug"); terr != err {
			return terr
		}
		return fmt.Errorf("sqlite: updating calendar %s: %w", cal.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("calendar", cal.ID)
	}

	return nil
}
