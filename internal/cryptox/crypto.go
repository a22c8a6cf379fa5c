// Package cryptox implements the vault's cryptographic primitives: master-key
// derivation from the PIN, per-entry subkey derivation, and authenticated
// encryption of credential values.
//
// The package knows nothing about sessions or persistence. Malformed key or
// salt lengths are programming errors and panic; a failed authentication tag
// check during decryption is a recoverable error (ErrAuthenticationFailed).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// MasterKeyLen is the length of the derived master key in bytes.
	MasterKeyLen = 32
	// SubkeyLen is the length of a per-entry encryption key in bytes.
	SubkeyLen = 32
	// SaltLen is the required length for the vault salt and entry salts.
	SaltLen = 32
	// NonceLen is the AES-GCM nonce length in bytes.
	NonceLen = 12

	// Argon2id parameters: 1 pass over 64 MiB with 4 lanes.
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	// Domain-separation constants. The verifier is a keyed hash of a fixed
	// string, never the master key itself, so PIN correctness can be checked
	// without persisting key material.
	verifierContext = "pinvault:verifier:v1"
	subkeyContext   = "pinvault:entry:v1:"
)

// ErrAuthenticationFailed is returned by Decrypt when the ciphertext fails
// its integrity check: either it was tampered with or the wrong subkey was
// supplied.
var ErrAuthenticationFailed = errors.New("authentication failed")

// DeriveMasterKey derives a 32-byte master key from the PIN and the vault
// salt using Argon2id. The derivation is deterministic: the same PIN and salt
// always produce the same key; different salts produce unlinkable keys.
func DeriveMasterKey(pin []byte, salt []byte) []byte {
	if len(salt) != SaltLen {
		panic(fmt.Sprintf("cryptox: vault salt must be %d bytes, got %d", SaltLen, len(salt)))
	}
	return argon2.IDKey(pin, salt, argon2Time, argon2Memory, argon2Threads, MasterKeyLen)
}

// MakeVerifier computes the stored verifier for a master key: an HMAC-SHA256
// of a fixed context string keyed by the master key.
func MakeVerifier(masterKey []byte) []byte {
	mustKeyLen("master key", masterKey, MasterKeyLen)
	mac := hmac.New(sha256.New, masterKey)
	mac.Write([]byte(verifierContext))
	return mac.Sum(nil)
}

// VerifyMasterKey reports whether masterKey matches the stored verifier.
// The comparison runs in constant time.
func VerifyMasterKey(masterKey []byte, verifier []byte) bool {
	candidate := MakeVerifier(masterKey)
	return subtle.ConstantTimeCompare(candidate, verifier) == 1
}

// DeriveEntrySubkey derives the per-credential encryption key from the master
// key and the entry's salt using HKDF-SHA256. The (appName, keyName) pair is
// bound into the HKDF info so a subkey only ever decrypts the entry it was
// derived for.
func DeriveEntrySubkey(masterKey []byte, appName, keyName string, entrySalt []byte) []byte {
	mustKeyLen("master key", masterKey, MasterKeyLen)
	if len(entrySalt) != SaltLen {
		panic(fmt.Sprintf("cryptox: entry salt must be %d bytes, got %d", SaltLen, len(entrySalt)))
	}

	info := subkeyContext + appName + "\x00" + keyName
	r := hkdf.New(sha256.New, masterKey, entrySalt, []byte(info))

	subkey := make([]byte, SubkeyLen)
	if _, err := io.ReadFull(r, subkey); err != nil {
		panic(fmt.Sprintf("cryptox: hkdf expand: %v", err))
	}
	return subkey
}

// Encrypt seals plaintext with AES-256-GCM under the given subkey. A fresh
// random nonce is drawn for every call and returned alongside the ciphertext.
func Encrypt(subkey []byte, plaintext []byte) (ciphertext, nonce []byte, err error) {
	aesgcm := newGCM(subkey)

	nonce = common.GenerateRandByteArray(NonceLen)
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt. It returns
// ErrAuthenticationFailed if the ciphertext was modified or the subkey does
// not match; altered plaintext is never returned.
func Decrypt(subkey []byte, ciphertext, nonce []byte) ([]byte, error) {
	aesgcm := newGCM(subkey)

	if len(nonce) != aesgcm.NonceSize() {
		return nil, ErrAuthenticationFailed
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

func newGCM(subkey []byte) cipher.AEAD {
	mustKeyLen("subkey", subkey, SubkeyLen)

	block, err := aes.NewCipher(subkey)
	if err != nil {
		panic(fmt.Sprintf("cryptox: aes: %v", err))
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		panic(fmt.Sprintf("cryptox: gcm: %v", err))
	}
	return aesgcm
}

func mustKeyLen(name string, key []byte, want int) {
	if len(key) != want {
		panic(fmt.Sprintf("cryptox: %s must be %d bytes, got %d", name, want, len(key)))
	}
}
