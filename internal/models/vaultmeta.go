package models

import "time"

// VaultMeta is the process-durable record created once at initialization.
// It never stores the PIN or the master key: PIN correctness is checked via
// the verifier, a keyed hash computed under the derived master key.
type VaultMeta struct {
	// Salt is the random vault salt fixed at initialization (replaced only
	// by a PIN change).
	Salt []byte

	// Verifier allows constant-time PIN verification without persisting
	// key material.
	Verifier []byte

	// FailedAttempts counts consecutive failed unlock attempts.
	FailedAttempts int

	// LastFailedAt is the time of the most recent failed attempt; zero if
	// none since the last successful unlock.
	LastFailedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
