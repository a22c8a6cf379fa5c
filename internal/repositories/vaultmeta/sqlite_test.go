package vaultmeta

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE vault_meta (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  salt BLOB NOT NULL,
  verifier BLOB NOT NULL,
  failed_attempts INTEGER NOT NULL DEFAULT 0,
  last_failed_at INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

func TestLoad_NotInitialized(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.Load(context.Background())
	assert.ErrorIs(t, err, common.ErrNotInitialized)
}

func TestSave_And_Load(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	meta := &models.VaultMeta{
		Salt:           []byte{0x01, 0x02},
		Verifier:       []byte{0x03, 0x04},
		FailedAttempts: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, r.Save(ctx, meta))

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
	assert.True(t, got.LastFailedAt.IsZero())
}

func TestSave_UpsertsSingleRow(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	meta := &models.VaultMeta{
		Salt:      []byte{0x01},
		Verifier:  []byte{0x02},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, r.Save(ctx, meta))

	meta.FailedAttempts = 3
	meta.LastFailedAt = now.Add(time.Minute)
	meta.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, r.Save(ctx, meta))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM vault_meta`).Scan(&count))
	assert.Equal(t, 1, count)

	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.FailedAttempts)
	assert.Equal(t, meta.LastFailedAt, got.LastFailedAt)
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	// deleting an absent row is fine
	require.NoError(t, r.Delete(ctx))

	now := time.Now().UTC()
	require.NoError(t, r.Save(ctx, &models.VaultMeta{
		Salt: []byte{0x01}, Verifier: []byte{0x02}, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, r.Delete(ctx))

	_, err := r.Load(ctx)
	assert.ErrorIs(t, err, common.ErrNotInitialized)
}
