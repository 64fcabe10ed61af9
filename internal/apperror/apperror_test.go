// GO TESTING BASICS:
// 1. Test files MUST end in _test.go — Go's tooling auto-discovers them
// 2. Test functions MUST start with "Test" and take *testing.T as the only param
// 3. Same package as the code being tested (so we can access unexported stuff)
// 4. Run with: go test ./internal/apperror/ -v  (-v = verbose, shows each test name)
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// This is Go's idiomatic pattern for testing multiple cases.
// Instead of writing separate test functions, we define a slice of test cases
// and loop over them. Benefits:
// - Adding a new test case = adding one struct to the slice
// - Every case gets a name (shows up in test output)
// - DRY — the assertion logic is written once

func TestErrorsIs(t *testing.T) {
	// Each test case checks that errors.Is() correctly identifies the error type
	tests := []struct {
		name      string // Descriptive name for test output
		err       error  // The error to test
		target    error  // What we expect it to match
		wantMatch bool   // Should errors.Is() return true?
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("calendar", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("calendar", "slug"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthenticated wraps ErrUnauthenticated",
			err:       Unauthenticated("user ID is required"),
			target:    ErrUnauthenticated,
			wantMatch: true,
		},
		{
			name:      "SchemaDrift wraps ErrSchemaDrift",
			err:       SchemaDrift("slug column missing", errors.New("no such column: slug")),
			target:    ErrSchemaDrift,
			wantMatch: true,
		},
		{
			name:      "Provisioning wraps ErrProvisioning",
			err:       Provisioning("could not create default calendar", nil),
			target:    ErrProvisioning,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("calendar", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "SchemaDrift does NOT match ErrNotFound",
			err:       SchemaDrift("slug column missing", errors.New("no such column: slug")),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	// t.Run() creates a sub-test for each case.
	// Output looks like: TestErrorsIs/NotFound_wraps_ErrNotFound
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				// t.Errorf marks the test as failed but continues running other tests
				// (vs t.Fatalf which stops immediately)
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("calendar", "abc123"),
			wantMessage: "calendar not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Conflict message includes resource and field",
			err:         Conflict("calendar", "slug"),
			wantMessage: "calendar conflict on slug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// .Error() should return the human-readable message
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	// Verify that Unwrap() returns the underlying sentinel error.
	// This is what makes errors.Is() work — it "unwraps" the chain.
	err := NotFound("calendar", "abc123")
	unwrapped := err.Unwrap()

	if unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestSchemaDriftPreservesCause(t *testing.T) {
	// SchemaDrift wraps BOTH the sentinel and the driver error, so callers
	// can match either: the sentinel for the degrade-open branch, the cause
	// for logging.
	cause := errors.New("no such column: slug")
	err := SchemaDrift("slug column missing", cause)

	if !errors.Is(err, ErrSchemaDrift) {
		t.Error("errors.Is(err, ErrSchemaDrift) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestErrorsIsThroughWrapping(t *testing.T) {
	// The service layer wraps repository errors with fmt.Errorf("...: %w", err).
	// errors.Is must still find the sentinel through the extra layer.
	inner := NotFound("event", "ev1")
	outer := fmt.Errorf("fetching event: %w", inner)

	if !errors.Is(outer, ErrNotFound) {
		t.Error("errors.Is did not find ErrNotFound through a fmt.Errorf wrap")
	}
}

func TestValidationFailedField(t *testing.T) {
	// Verify that the Field is set correctly for validation errors.
	// This lets handlers tell the frontend WHICH field was invalid.
	err := ValidationFailed("slug", "slug must be 3-50 characters")

	if err.Field != "slug" {
		t.Errorf("Field = %q, want %q", err.Field, "slug")
	}
}
