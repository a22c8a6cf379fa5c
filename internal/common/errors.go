package common

import "errors"

// Vault error taxonomy. Every expected failure surfaced by the engine is one
// of these sentinels, possibly wrapped with context; callers match with
// errors.Is. Contract violations (malformed key or salt lengths) are not in
// this list: they panic, because they indicate a bug rather than user input.
var (
	// Auth/session errors.
	ErrNotInitialized     = errors.New("vault not initialized")
	ErrAlreadyInitialized = errors.New("vault already initialized")
	ErrInvalidPin         = errors.New("invalid pin")
	ErrPinTooShort        = errors.New("pin too short")
	ErrTooManyAttempts    = errors.New("too many failed attempts")
	ErrVaultLocked        = errors.New("vault is locked")

	// Credential errors.
	ErrDuplicateKey = errors.New("credential already exists")
	ErrNotFound     = errors.New("credential not found")

	// ErrCorrupted reports an integrity failure while decrypting a stored
	// value: tampering or a key mismatch, never simple absence.
	ErrCorrupted = errors.New("vault data corrupted")

	// ErrPersistence wraps I/O errors from the storage collaborator. The
	// engine never retries these; retry policy belongs to the caller.
	ErrPersistence = errors.New("persistence failure")
)
