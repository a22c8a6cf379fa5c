// Package models defines the persistent and in-memory data shapes of the
// vault: initialization metadata, encrypted credential records, and the
// metadata projection returned by list/search.
package models

import "time"

// CredentialRecord is the durable form of a stored credential. The value is
// kept only as AEAD ciphertext with its nonce; the entry salt feeds subkey
// derivation and is rotated on every value change.
type CredentialRecord struct {
	// ID is an opaque unique identifier.
	ID string

	// AppName and KeyName identify the credential. The pair is unique
	// among live records.
	AppName string
	KeyName string

	// APIURL and Description are optional caller-supplied metadata.
	APIURL      string
	Description string

	// EncryptedValue is the AES-GCM ciphertext of the secret value.
	EncryptedValue []byte
	// Nonce is the AEAD nonce used for EncryptedValue.
	Nonce []byte
	// EncryptionSalt is the per-entry salt for subkey derivation.
	EncryptionSalt []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Metadata returns the projection of the record with all ciphertext-adjacent
// fields stripped.
func (r *CredentialRecord) Metadata() CredentialMetadata {
	return CredentialMetadata{
		ID:          r.ID,
		AppName:     r.AppName,
		KeyName:     r.KeyName,
		APIURL:      r.APIURL,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// CredentialMetadata is what list and search return. It deliberately has no
// ciphertext or salt fields, so code paths that handle it cannot decrypt
// anything by construction.
type CredentialMetadata struct {
	ID          string
	AppName     string
	KeyName     string
	APIURL      string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Credential is the decrypted result of a get: the metadata plus the
// plaintext value. It exists only in memory during an operation.
type Credential struct {
	CredentialMetadata
	Value []byte
}

// CredentialPatch describes a partial update. Nil fields mean "keep the
// current value"; a pointer to an empty string clears the field. Supplying
// Value re-encrypts under a freshly rotated entry salt.
type CredentialPatch struct {
	Value       []byte
	APIURL      *string
	Description *string
}
