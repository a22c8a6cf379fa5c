package vaultmeta

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pinvault/internal/common"
	"github.com/dmitrijs2005/pinvault/internal/dbx"
	"github.com/dmitrijs2005/pinvault/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Load reads the single vault_meta row.
func (r *SQLiteRepository) Load(ctx context.Context) (*models.VaultMeta, error) {
	query := `select salt, verifier, failed_attempts, last_failed_at, created_at, updated_at
		from vault_meta where id = 1`
	row := r.db.QueryRowContext(ctx, query)

	m := &models.VaultMeta{}
	var lastFailed, created, updated int64
	err := row.Scan(&m.Salt, &m.Verifier, &m.FailedAttempts, &lastFailed, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load vault meta: %w: %w", common.ErrPersistence, err)
	}

	if lastFailed != 0 {
		m.LastFailedAt = time.Unix(0, lastFailed).UTC()
	}
	m.CreatedAt = time.Unix(0, created).UTC()
	m.UpdatedAt = time.Unix(0, updated).UTC()
	return m, nil
}

// Save upserts the vault_meta row. The fixed id keeps the table single-row.
func (r *SQLiteRepository) Save(ctx context.Context, m *models.VaultMeta) error {
	query := `insert into vault_meta (id, salt, verifier, failed_attempts, last_failed_at, created_at, updated_at)
		values (1, ?, ?, ?, ?, ?, ?)
		on conflict(id) do update set
			salt = excluded.salt,
			verifier = excluded.verifier,
			failed_attempts = excluded.failed_attempts,
			last_failed_at = excluded.last_failed_at,
			updated_at = excluded.updated_at`

	var lastFailed int64
	if !m.LastFailedAt.IsZero() {
		lastFailed = m.LastFailedAt.UnixNano()
	}

	_, err := r.db.ExecContext(ctx, query,
		m.Salt, m.Verifier, m.FailedAttempts, lastFailed,
		m.CreatedAt.UnixNano(), m.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save vault meta: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

// Delete removes the vault_meta row if present.
func (r *SQLiteRepository) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `delete from vault_meta where id = 1`)
	if err != nil {
		return fmt.Errorf("delete vault meta: %w: %w", common.ErrPersistence, err)
	}
	return nil
}
