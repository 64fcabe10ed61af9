package model

import "time"

// Calendar represents one user-owned calendar of events.
//
// Every user gets exactly one default calendar, created lazily on first
// access (see service.CalendarService). Two identifiers can expose it
// publicly:
//
//   - PublicID: an opaque UUID assigned at creation, always present.
//   - Slug: an optional human-readable identifier ("ada-lovelace"),
//     unique across all calendars when set.
//
// IsPublic gates both: a calendar is only reachable through either
// identifier while IsPublic is true.
type Calendar struct {
	ID          string    `json:"id"          db:"id"`
	OwnerID     string    `json:"ownerId"     db:"owner_id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	IsDefault   bool      `json:"isDefault"   db:"is_default"`
	IsPublic    bool      `json:"isPublic"    db:"is_public"`
	PublicID    string    `json:"publicId"    db:"public_id"`
	Slug        string    `json:"slug,omitempty" db:"slug"` // empty = no slug assigned yet
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// PublicIdentifier returns the identifier to use in a shareable link:
// the slug when one is assigned, otherwise the opaque public ID.
func (c *Calendar) PublicIdentifier() string {
	if c.Slug != "" {
		return c.Slug
	}
	return c.PublicID
}

// PublicPath returns the public view path for the calendar, or "" when the
// calendar is private and has no shareable link.
func (c *Calendar) PublicPath() string {
	if !c.IsPublic {
		return ""
	}
	return "/calendar/public/" + c.PublicIdentifier()
}
