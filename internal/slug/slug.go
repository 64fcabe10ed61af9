// Package slug derives URL-safe calendar identifiers from display text and
// resolves them to collision-free values against the store.
//
// A slug is the human-readable half of a calendar's public address
// ("/calendar/public/ada-lovelace"); the opaque public ID is the other half.
// Slugs are unique across all calendars when present, so before assigning
// one we have to check availability — and keep suffixing until we find a
// free variant.
//
// ERROR POLICY (deliberate, see GenerateUnique):
// "slug taken" is never an error here — it's the expected case the counter
// loop exists for. A store whose schema hasn't been migrated yet (missing
// slug column) degrades OPEN: the candidate is treated as available rather
// than blocking sign-up on schema drift. Any other store failure makes
// GenerateUnique abandon the loop and return a timestamp-suffixed fallback
// instead of surfacing the error.
package slug

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/debrief-app/debrief/internal/apperror"
)

const (
	// Fallback is the literal used when normalization eats the whole input
	// (e.g. a title that is all emoji).
	Fallback = "calendar"

	// MinLength / MaxLength bound client-supplied slugs. Generated slugs are
	// truncated to MaxLength; the minimum only gates explicit user input.
	MinLength = 3
	MaxLength = 50

	// maxAttempts caps the suffix counter loop. A store that reports every
	// candidate of base, base-1, ... base-999 as taken is either adversarial
	// or broken; either way the timestamp fallback is the answer.
	maxAttempts = 1000
)

// Normalize converts arbitrary display text into slug form: lower-cased,
// characters outside [a-z0-9-\s] dropped, whitespace runs collapsed to a
// single hyphen, repeated hyphens collapsed, no leading/trailing hyphen.
// The result is truncated to MaxLength. An input that normalizes to nothing
// yields Fallback.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			// A hyphen is only emitted between two kept characters — that
			// trims the edges and collapses runs in a single pass.
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-', r == ' ', r == '\t', r == '\n', r == '\r':
			pendingHyphen = true
		default:
			// Punctuation, emoji, non-ASCII: dropped without producing a
			// hyphen, matching "don't" → "dont" rather than "don-t".
		}
	}

	s := b.String()
	if s == "" {
		return Fallback
	}
	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// FromName builds a base slug for a calendar from its owner's name, falling
// back to the calendar title, falling back to the fixed literal.
func FromName(name, title string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = strings.TrimSpace(title)
	}
	if base == "" {
		return Fallback
	}
	return Normalize(base)
}

// IsValid reports whether s is an acceptable client-supplied slug:
// 3-50 characters drawn from [a-z0-9-]. This is the cheap local gate that
// runs before any remote availability check.
func IsValid(s string) bool {
	if len(s) < MinLength || len(s) > MaxLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

// AvailabilityStore is the one query the resolver needs from the store.
// *sqlite.DB implements it; tests supply fakes.
type AvailabilityStore interface {
	// SlugExists reports whether any calendar already has the given slug.
	// A not-yet-migrated schema surfaces as apperror.ErrSchemaDrift.
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Resolver checks slug availability and generates collision-free slugs.
type Resolver struct {
	store  AvailabilityStore
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(store AvailabilityStore, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// IsAvailable reports whether the slug can be assigned to a new calendar.
//
// Empty or invalid slugs are never available. A schema-drift error from the
// store (slug column not migrated yet) degrades open: the slug is reported
// available and a warning is logged. Genuine store failures are returned to
// the caller.
func (r *Resolver) IsAvailable(ctx context.Context, s string) (bool, error) {
	if !IsValid(s) {
		return false, nil
	}

	exists, err := r.store.SlugExists(ctx, s)
	if err != nil {
		if errors.Is(err, apperror.ErrSchemaDrift) {
			r.logger.Warn("slug column missing, treating slug as available",
				slog.String("slug", s),
				slog.String("error", err.Error()),
			)
			return true, nil
		}
		return false, fmt.Errorf("slug: checking availability of %q: %w", s, err)
	}

	return !exists, nil
}

// GenerateUnique finds a free variant of base by testing base, base-1,
// base-2, ... in order and returning the first available candidate. Every
// candidate fits MaxLength: the base is trimmed to make room for the suffix.
//
// It never fails: an unexpected store error (or exhausting the counter cap)
// abandons the loop and returns base suffixed with the current Unix
// timestamp — unique enough, and strictly better than blocking a sign-up or
// a share action on a transient store hiccup.
func (r *Resolver) GenerateUnique(ctx context.Context, base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = Fallback
	}
	if len(base) > MaxLength {
		base = strings.TrimRight(base[:MaxLength], "-")
	}

	candidate := base
	for i := 1; i <= maxAttempts; i++ {
		exists, err := r.store.SlugExists(ctx, candidate)
		if err != nil {
			if errors.Is(err, apperror.ErrSchemaDrift) {
				// Degrade open — the column isn't there, so nothing can
				// collide with us.
				r.logger.Warn("slug column missing, using candidate without availability check",
					slog.String("slug", candidate),
				)
				return candidate
			}
			fallback := withSuffix(base, time.Now().Unix())
			r.logger.Warn("slug availability check failed, using timestamp fallback",
				slog.String("base", base),
				slog.String("fallback", fallback),
				slog.String("error", err.Error()),
			)
			return fallback
		}
		if !exists {
			return candidate
		}
		candidate = withSuffix(base, int64(i))
	}

	return withSuffix(base, time.Now().Unix())
}

// withSuffix appends "-<n>" to base, trimming base first so the result
// stays within MaxLength.
func withSuffix(base string, n int64) string {
	suffix := fmt.Sprintf("-%d", n)
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "-")
	}
	return base + suffix
}
