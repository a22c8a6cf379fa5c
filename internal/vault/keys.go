package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/cryptox"
	"github.com/dmitrijs2005/pinvault/internal/dbx"
	"github.com/dmitrijs2005/pinvault/internal/logging"
	"github.com/dmitrijs2005/pinvault/internal/models"
	"github.com/dmitrijs2005/pinvault/internal/repositories/credentials"
)

// KeyService is the credential CRUD service. Every operation atomically
// snapshots "unlocked + master key" from the shared session before touching
// persistence or crypto; while locked, operations fail with
// common.ErrVaultLocked and mutate nothing.
type KeyService struct {
	db      *sql.DB
	session *Session
	log     logging.Logger

	now func() time.Time // test seam
}

// NewKeyService constructs a KeyService over the vault database and the
// shared session.
func NewKeyService(db *sql.DB, session *Session, log logging.Logger) *KeyService {
	return &KeyService{db: db, session: session, log: log, now: time.Now}
}

func (s *KeyService) repo(db dbx.DBTX) credentials.Repository {
	return credentials.NewSQLiteRepository(db)
}

// Create encrypts value under a fresh entry salt and stores a new credential
// record. The (appName, keyName) pair must be unique; the check and the
// insert run in one transaction, with the table's unique index as backstop,
// so two concurrent creates for the same pair cannot both succeed.
func (s *KeyService) Create(ctx context.Context, appName, keyName string, value []byte, apiURL, description string) (string, error) {
	masterKey, err := s.session.snapshotKey()
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(masterKey)

	entrySalt := common.GenerateRandByteArray(cryptox.SaltLen)
	subkey := cryptox.DeriveEntrySubkey(masterKey, appName, keyName, entrySalt)
	ciphertext, nonce, err := cryptox.Encrypt(subkey, value)
	common.WipeByteArray(subkey)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	rec := &models.CredentialRecord{
		ID:             uuid.NewString(),
		AppName:        appName,
		KeyName:        keyName,
		APIURL:         apiURL,
		Description:    description,
		EncryptedValue: ciphertext,
		Nonce:          nonce,
		EncryptionSalt: entrySalt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		if _, err := repo.GetByName(ctx, appName, keyName); err == nil {
			return fmt.Errorf("credential %s/%s: %w", appName, keyName, common.ErrDuplicateKey)
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}
		return repo.Insert(ctx, rec)
	})
	if err != nil {
		return "", err
	}

	s.session.Touch()
	s.log.Info(ctx, "credential created", "app", appName, "key", keyName)
	return rec.ID, nil
}

// Get returns the decrypted credential for an (appName, keyName) pair.
// An integrity failure during decryption surfaces as common.ErrCorrupted,
// distinct from common.ErrNotFound: the record exists but its ciphertext
// does not authenticate.
func (s *KeyService) Get(ctx context.Context, appName, keyName string) (*models.Credential, error) {
	masterKey, err := s.session.snapshotKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(masterKey)

	rec, err := s.repo(s.db).GetByName(ctx, appName, keyName)
	if err != nil {
		return nil, err
	}

	subkey := cryptox.DeriveEntrySubkey(masterKey, rec.AppName, rec.KeyName, rec.EncryptionSalt)
	plaintext, err := cryptox.Decrypt(subkey, rec.EncryptedValue, rec.Nonce)
	common.WipeByteArray(subkey)
	if err != nil {
		return nil, fmt.Errorf("credential %s/%s: %w", appName, keyName, common.ErrCorrupted)
	}

	s.session.Touch()
	return &models.Credential{
		CredentialMetadata: rec.Metadata(),
		Value:              plaintext,
	}, nil
}

// List returns metadata for all credentials, ordered by app name then key
// name. Nothing is decrypted.
func (s *KeyService) List(ctx context.Context) ([]models.CredentialMetadata, error) {
	if _, err := s.session.snapshotKey(); err != nil {
		return nil, err
	}

	items, err := s.repo(s.db).List(ctx)
	if err != nil {
		return nil, err
	}

	s.session.Touch()
	return items, nil
}

// Search returns metadata for credentials whose app name, key name, or
// description contains query, case-insensitively. An empty query returns the
// full list. Nothing is decrypted.
func (s *KeyService) Search(ctx context.Context, query string) ([]models.CredentialMetadata, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matched := make([]models.CredentialMetadata, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.AppName), q) ||
			strings.Contains(strings.ToLower(item.KeyName), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// Update applies a partial update to the credential identified by id. Nil
// patch fields keep their current values. Supplying a new value rotates the
// entry salt and re-encrypts; metadata-only updates leave the ciphertext and
// salt untouched. The read-modify-write runs in one transaction.
func (s *KeyService) Update(ctx context.Context, id string, patch models.CredentialPatch) error {
	masterKey, err := s.session.snapshotKey()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(masterKey)

	now := s.now().UTC()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		rec, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if patch.APIURL != nil {
			rec.APIURL = *patch.APIURL
		}
		if patch.Description != nil {
			rec.Description = *patch.Description
		}
		if patch.Value != nil {
			entrySalt := common.GenerateRandByteArray(cryptox.SaltLen)
			subkey := cryptox.DeriveEntrySubkey(masterKey, rec.AppName, rec.KeyName, entrySalt)
			ciphertext, nonce, err := cryptox.Encrypt(subkey, patch.Value)
			common.WipeByteArray(subkey)
			if err != nil {
				return err
			}
			rec.EncryptedValue = ciphertext
			rec.Nonce = nonce
			rec.EncryptionSalt = entrySalt
		}

		rec.UpdatedAt = now
		return repo.Update(ctx, rec)
	})
	if err != nil {
		return err
	}

	s.session.Touch()
	s.log.Info(ctx, "credential updated", "id", id, "rotated", patch.Value != nil)
	return nil
}

// Delete permanently removes a credential and returns its metadata for
// caller confirmation.
func (s *KeyService) Delete(ctx context.Context, id string) (*models.CredentialMetadata, error) {
	if _, err := s.session.snapshotKey(); err != nil {
		return nil, err
	}

	var meta models.CredentialMetadata
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		rec, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		meta = rec.Metadata()
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.session.Touch()
	s.log.Info(ctx, "credential deleted", "app", meta.AppName, "key", meta.KeyName)
	return &meta, nil
}
