// Package credentials persists encrypted credential records and serves the
// metadata projections used by list and search.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/pinvault/internal/models"
)

// Repository describes storage operations for credential records.
// Implementations are backed by the local SQLite vault file.
type Repository interface {
	// Insert stores a new record. It returns common.ErrDuplicateKey when a
	// live record with the same (AppName, KeyName) pair already exists.
	Insert(ctx context.Context, rec *models.CredentialRecord) error

	// GetByID returns the full record, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.CredentialRecord, error)

	// GetByName returns the full record for an (appName, keyName) pair, or
	// common.ErrNotFound.
	GetByName(ctx context.Context, appName, keyName string) (*models.CredentialRecord, error)

	// List returns metadata for all records ordered by AppName, then
	// KeyName. Ciphertext columns are never read.
	List(ctx context.Context) ([]models.CredentialMetadata, error)

	// ListRecords returns all full records. Used only by PIN rotation,
	// which must re-encrypt every stored value.
	ListRecords(ctx context.Context) ([]models.CredentialRecord, error)

	// Update replaces all mutable columns of the record identified by
	// rec.ID. Returns common.ErrNotFound if the id does not exist.
	Update(ctx context.Context, rec *models.CredentialRecord) error

	// Delete permanently removes a record by id. Returns
	// common.ErrNotFound if the id does not exist.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every record. Used only by vault reset.
	DeleteAll(ctx context.Context) error
}
