package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/cryptox"
	"github.com/dmitrijs2005/pinvault/internal/dbx"
	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/models"
	"github.com/dmitrijs2005/pinvault/internal/repositories/credentials"
	"github.com/dmitrijs2005/pinvault/internal/repositories/vaultmeta"
)

const (
	// MinPinLength is the minimum accepted PIN length in bytes.
	MinPinLength = 6

	// MaxFailedAttempts consecutive failed unlocks arm the lockout.
	MaxFailedAttempts = 5

	// LockoutWindow is how long unlock attempts are refused after the
	// failure threshold is reached, measured from the last failure.
	LockoutWindow = 5 * time.Minute
)

// AuthService owns vault initialization and the lock/unlock lifecycle.
//
// It is passive with respect to auto-locking: it exposes SessionState and
// Lock, and an external, caller-owned scheduler decides when idleness should
// lock the vault.
type AuthService struct {
	db      *sql.DB
	session *Session
	log     logging.Logger

	now func() time.Time // test seam
}

// NewAuthService constructs an AuthService over the vault database and the
// shared session.
func NewAuthService(db *sql.DB, session *Session, log logging.Logger) *AuthService {
	return &AuthService{db: db, session: session, log: log, now: time.Now}
}

func (a *AuthService) metaRepo(db dbx.DBTX) vaultmeta.Repository {
	return vaultmeta.NewSQLiteRepository(db)
}

func (a *AuthService) credRepo(db dbx.DBTX) credentials.Repository {
	return credentials.NewSQLiteRepository(db)
}

// IsInitialized reports whether the vault has been initialized.
func (a *AuthService) IsInitialized(ctx context.Context) (bool, error) {
	_, err := a.metaRepo(a.db).Load(ctx)
	if errors.Is(err, common.ErrNotInitialized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Initialize creates the vault: it generates the vault salt, derives the
// master key from the PIN, and stores the verifier. The vault is left in the
// locked state; the caller unlocks separately.
func (a *AuthService) Initialize(ctx context.Context, pin []byte) error {
	if _, err := a.metaRepo(a.db).Load(ctx); err == nil {
		return common.ErrAlreadyInitialized
	} else if !errors.Is(err, common.ErrNotInitialized) {
		return err
	}

	if len(pin) < MinPinLength {
		return fmt.Errorf("%w: need at least %d characters", common.ErrPinTooShort, MinPinLength)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltLen)
	masterKey := cryptox.DeriveMasterKey(pin, salt)
	verifier := cryptox.MakeVerifier(masterKey)
	common.WipeByteArray(masterKey)

	now := a.now().UTC()
	meta := &models.VaultMeta{
		Salt:      salt,
		Verifier:  verifier,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.metaRepo(a.db).Save(ctx, meta); err != nil {
		return err
	}

	a.log.Info(ctx, "vault initialized")
	return nil
}

// Unlock verifies the PIN against the stored verifier and, on success,
// starts an unlocked session holding the derived master key.
//
// The lockout check runs before any key derivation, so a locked-out caller
// gets the same fast ErrTooManyAttempts whether or not the PIN is correct.
func (a *AuthService) Unlock(ctx context.Context, pin []byte) error {
	meta, err := a.metaRepo(a.db).Load(ctx)
	if err != nil {
		return err
	}

	now := a.now().UTC()
	staleCleared := false
	if meta.FailedAttempts >= MaxFailedAttempts {
		if now.Sub(meta.LastFailedAt) < LockoutWindow {
			return common.ErrTooManyAttempts
		}
		// window elapsed: stale failures no longer count
		meta.FailedAttempts = 0
		meta.LastFailedAt = time.Time{}
		staleCleared = true
	}

	masterKey := cryptox.DeriveMasterKey(pin, meta.Salt)
	if !cryptox.VerifyMasterKey(masterKey, meta.Verifier) {
		common.WipeByteArray(masterKey)

		meta.FailedAttempts++
		meta.LastFailedAt = now
		meta.UpdatedAt = now
		if err := a.metaRepo(a.db).Save(ctx, meta); err != nil {
			return err
		}

		a.log.Warn(ctx, "failed unlock attempt", "consecutive", meta.FailedAttempts)
		return common.ErrInvalidPin
	}

	if staleCleared || meta.FailedAttempts > 0 || !meta.LastFailedAt.IsZero() {
		meta.FailedAttempts = 0
		meta.LastFailedAt = time.Time{}
		meta.UpdatedAt = now
		if err := a.metaRepo(a.db).Save(ctx, meta); err != nil {
			common.WipeByteArray(masterKey)
			return err
		}
	}

	a.session.setKey(masterKey)
	a.log.Info(ctx, "vault unlocked")
	return nil
}

// Lock zeroes the in-memory master key. Idempotent.
func (a *AuthService) Lock(ctx context.Context) {
	a.session.Lock()
	a.log.Info(ctx, "vault locked")
}

// TouchActivity refreshes the session's last-activity timestamp. No-op while
// locked.
func (a *AuthService) TouchActivity() {
	a.session.Touch()
}

// SessionState returns the current lock state and idle duration.
func (a *AuthService) SessionState() SessionState {
	return a.session.State()
}

// ChangePin rotates the vault salt and re-encrypts every stored credential
// under the key derived from the new PIN.
//
// The session mutex is held for the full rotation so no credential mutation
// can interleave, and all persisted writes happen in one transaction: a
// crash before commit leaves the old salt, verifier, and ciphertexts intact,
// so the old PIN still opens an undamaged vault.
func (a *AuthService) ChangePin(ctx context.Context, oldPin, newPin []byte) error {
	if len(newPin) < MinPinLength {
		return fmt.Errorf("%w: need at least %d characters", common.ErrPinTooShort, MinPinLength)
	}

	a.session.mu.Lock()
	defer a.session.mu.Unlock()

	meta, err := a.metaRepo(a.db).Load(ctx)
	if err != nil {
		return err
	}

	oldKey := cryptox.DeriveMasterKey(oldPin, meta.Salt)
	defer common.WipeByteArray(oldKey)
	if !cryptox.VerifyMasterKey(oldKey, meta.Verifier) {
		return common.ErrInvalidPin
	}

	newSalt := common.GenerateRandByteArray(cryptox.SaltLen)
	newKey := cryptox.DeriveMasterKey(newPin, newSalt)

	now := a.now().UTC()
	rotated := 0
	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		creds := a.credRepo(tx)
		recs, err := creds.ListRecords(ctx)
		if err != nil {
			return err
		}

		for i := range recs {
			rec := &recs[i]

			oldSubkey := cryptox.DeriveEntrySubkey(oldKey, rec.AppName, rec.KeyName, rec.EncryptionSalt)
			plaintext, err := cryptox.Decrypt(oldSubkey, rec.EncryptedValue, rec.Nonce)
			common.WipeByteArray(oldSubkey)
			if err != nil {
				return fmt.Errorf("credential %s/%s: %w", rec.AppName, rec.KeyName, common.ErrCorrupted)
			}

			entrySalt := common.GenerateRandByteArray(cryptox.SaltLen)
			newSubkey := cryptox.DeriveEntrySubkey(newKey, rec.AppName, rec.KeyName, entrySalt)
			ciphertext, nonce, err := cryptox.Encrypt(newSubkey, plaintext)
			common.WipeByteArray(newSubkey)
			common.WipeByteArray(plaintext)
			if err != nil {
				return err
			}

			rec.EncryptedValue = ciphertext
			rec.Nonce = nonce
			rec.EncryptionSalt = entrySalt
			rec.UpdatedAt = now
			if err := creds.Update(ctx, rec); err != nil {
				return err
			}
			rotated++
		}

		meta.Salt = newSalt
		meta.Verifier = cryptox.MakeVerifier(newKey)
		meta.FailedAttempts = 0
		meta.LastFailedAt = time.Time{}
		meta.UpdatedAt = now
		return a.metaRepo(tx).Save(ctx, meta)
	})
	if err != nil {
		common.WipeByteArray(newKey)
		return err
	}

	// keep the session in its prior state: an unlocked session continues
	// seamlessly under the new key
	if a.session.masterKey != nil {
		common.WipeByteArray(a.session.masterKey)
		a.session.masterKey = newKey
		a.session.lastActivity = a.session.now()
	} else {
		common.WipeByteArray(newKey)
	}

	a.log.Info(ctx, "pin changed", "credentials", rotated)
	return nil
}

// Reset irreversibly destroys the vault: every credential record and the
// initialization metadata are deleted and the session is locked. Requires
// PIN re-verification.
func (a *AuthService) Reset(ctx context.Context, pin []byte) error {
	meta, err := a.metaRepo(a.db).Load(ctx)
	if err != nil {
		return err
	}

	masterKey := cryptox.DeriveMasterKey(pin, meta.Salt)
	ok := cryptox.VerifyMasterKey(masterKey, meta.Verifier)
	common.WipeByteArray(masterKey)
	if !ok {
		return common.ErrInvalidPin
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := a.credRepo(tx).DeleteAll(ctx); err != nil {
			return err
		}
		return a.metaRepo(tx).Delete(ctx)
	})
	if err != nil {
		return err
	}

	a.session.Lock()
	a.log.Warn(ctx, "vault reset: all credentials destroyed")
	return nil
}
