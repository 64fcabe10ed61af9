// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// User represents a registered user account.
//
// GitHub OAuth is the primary identity provider, so the main external
// identifier is the GitHub user ID (an integer). We still generate our own
// internal string ID (xid) for consistency with Calendar/Event and to avoid
// tying our primary keys to a third-party's numbering scheme.
//
// Accounts created through the email/password flow have GitHubID == 0 — the
// repository stores NULL for those rows, so the UNIQUE constraint on
// github_id only applies to real GitHub accounts.
//
// PasswordHash is tagged `json:"-"` so it can never leak into an API
// response, no matter which handler serializes the struct.
type User struct {
	ID           string    `json:"id"        db:"id"`
	GitHubID     int64     `json:"githubId,omitempty" db:"github_id"` // GitHub's numeric user ID (0 for password accounts)
	Login        string    `json:"login"     db:"login"`              // GitHub username or email local-part
	Email        string    `json:"email"     db:"email"`              // Primary email (may be empty for GitHub users who hide it)
	Name         string    `json:"name"      db:"name"`               // Full display name, e.g. "Ada Lovelace"
	FirstName    string    `json:"firstName" db:"first_name"`         // Given name, if the provider supplies one
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`         // Profile picture URL
	PasswordHash string    `json:"-"         db:"password_hash"`      // bcrypt hash; empty for OAuth-only accounts
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// DisplayNameOr returns the best human-readable name for the user:
// Name first, then FirstName, then the local part of the email. The given
// default is returned when none are set.
//
// Callers pick the default for their context — "user" when seeding a slug,
// "Anonymous" when labelling a public calendar.
func (u *User) DisplayNameOr(def string) string {
	if u == nil {
		return def
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if first := strings.TrimSpace(u.FirstName); first != "" {
		return first
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return def
}
