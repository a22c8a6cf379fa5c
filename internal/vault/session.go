// Package vault implements the PinVault engine: the auth/session state
// machine, the unlock-gated credential CRUD service, and the session state
// shared between them.
//
// The engine is purely in-process. Expected failures are sentinel errors
// from the common package; secret material never leaves the package except
// as the decrypted value of an explicit get.
package vault

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
)

// SessionState is the externally visible snapshot of the session. It carries
// derived values only, never the master key.
type SessionState struct {
	Unlocked      bool
	SinceActivity time.Duration
}

// Session holds the vault's transient unlock state: the in-memory master key
// and the last-activity timestamp. It exists only in memory, is owned by the
// services in this package, and is shared with callers exclusively through
// SessionState.
//
// All access goes through one mutex, so a Lock racing an in-flight operation
// can never be observed half-applied: operations snapshot "unlocked + key"
// atomically at their start.
//
// Invariant: masterKey is non-nil if and only if the session is unlocked.
type Session struct {
	mu           sync.Mutex
	masterKey    []byte
	lastActivity time.Time

	now func() time.Time // test seam
}

// NewSession returns a locked session.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// Lock zeroes the in-memory master key and transitions to locked.
// Idempotent: locking a locked session is a no-op.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked()
}

// lockLocked is Lock without the mutex; the caller must hold s.mu.
func (s *Session) lockLocked() {
	common.WipeByteArray(s.masterKey)
	s.masterKey = nil
	s.lastActivity = time.Time{}
}

// Touch updates the last-activity timestamp. No-op while locked.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.masterKey != nil {
		s.lastActivity = s.now()
	}
}

// State reports whether the session is unlocked and how long it has been
// idle. While locked, SinceActivity is zero.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.masterKey == nil {
		return SessionState{}
	}
	return SessionState{
		Unlocked:      true,
		SinceActivity: s.now().Sub(s.lastActivity),
	}
}

// setKey transitions to unlocked, taking ownership of masterKey. Any
// previous key is wiped first.
func (s *Session) setKey(masterKey []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	common.WipeByteArray(s.masterKey)
	s.masterKey = masterKey
	s.lastActivity = s.now()
}

// snapshotKey atomically checks the lock state and returns a private copy of
// the master key, or common.ErrVaultLocked. Callers wipe the copy when the
// operation finishes.
func (s *Session) snapshotKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.masterKey == nil {
		return nil, common.ErrVaultLocked
	}
	key := make([]byte, len(s.masterKey))
	copy(key, s.masterKey)
	return key, nil
}
