// Package vaultmeta persists the vault's initialization record: salt,
// verifier, and the failed-attempt counter.
package vaultmeta

import (
	"context"

	"github.com/dmitrijs2005/pinvault/internal/models"
)

// Repository describes storage operations for the single VaultMeta row.
type Repository interface {
	// Load returns the stored VaultMeta, or common.ErrNotInitialized if
	// the vault has never been initialized.
	Load(ctx context.Context) (*models.VaultMeta, error)

	// Save inserts or replaces the VaultMeta row.
	Save(ctx context.Context, meta *models.VaultMeta) error

	// Delete removes the VaultMeta row, returning the vault to its
	// uninitialized state. Deleting an absent row is not an error.
	Delete(ctx context.Context) error
}
