package model

import "time"

// Event is a single dated entry on a calendar.
//
// StartTime is required; day-only events store UTC midnight of their date.
// EndTime is optional (zero value = no explicit end). ImageURL and Color are
// presentation hints stored verbatim — the server does not validate that the
// image actually loads.
type Event struct {
	ID          string    `json:"id"          db:"id"`
	CalendarID  string    `json:"calendarId"  db:"calendar_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	StartTime   time.Time `json:"startTime"   db:"start_time"`
	EndTime     time.Time `json:"endTime,omitzero" db:"end_time"`
	ImageURL    string    `json:"imageUrl"    db:"image_url"`
	Color       string    `json:"color"       db:"color"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
