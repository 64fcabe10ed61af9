// Password hashing.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, and that slowness is the security property:
// it makes offline brute-force expensive. It also generates and embeds a
// random salt per hash, so identical passwords produce different hashes and
// no separate salt column is needed.
//
// Never store passwords in plain text or behind fast hashes (MD5, SHA-256) —
// those fall to GPU rigs in minutes. bcrypt at cost 12 takes ~250ms per
// attempt: negligible for a login, crushing for an attacker.

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor: 2^12 = 4096 rounds, roughly 250ms
// on current server hardware. Tune so hashing lands in the 200-300ms range.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct rather than free functions so tests can inject a lower cost
// and skip the ~250ms-per-hash tax.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom
// (typically minimal) cost. Not for production use.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password.
//
// The output is self-contained — salt and cost are encoded in the string —
// so it can be stored directly and later handed to Verify.
//
// Plaintext longer than 72 bytes is rejected: bcrypt would silently truncate
// it, and silent truncation of a password is worse than an error.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored hash. nil means match.
//
// bcrypt's comparison is constant-time, so response timing leaks nothing
// about how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
