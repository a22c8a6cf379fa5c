package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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

// Insert stores a new record. The UNIQUE(app_name, key_name) index makes the
// duplicate check atomic with the insert.
func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.CredentialRecord) error {
	query := `insert into credentials
		(id, app_name, key_name, api_url, description, encrypted_value, nonce, encryption_salt, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.AppName, rec.KeyName, rec.APIURL, rec.Description,
		rec.EncryptedValue, rec.Nonce, rec.EncryptionSalt,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("credential %s/%s: %w", rec.AppName, rec.KeyName, common.ErrDuplicateKey)
		}
		return fmt.Errorf("insert credential: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

// GetByID returns the full record for an id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.CredentialRecord, error) {
	row := r.db.QueryRowContext(ctx, selectFull+` where id = ?`, id)
	return scanRecord(row)
}

// GetByName returns the full record for an (appName, keyName) pair.
func (r *SQLiteRepository) GetByName(ctx context.Context, appName, keyName string) (*models.CredentialRecord, error) {
	row := r.db.QueryRowContext(ctx, selectFull+` where app_name = ? and key_name = ?`, appName, keyName)
	return scanRecord(row)
}

// List returns metadata for all records. Only metadata columns are selected,
// so nothing on this path can ever see ciphertext.
func (r *SQLiteRepository) List(ctx context.Context) ([]models.CredentialMetadata, error) {
	query := `select id, app_name, key_name, api_url, description, created_at, updated_at
		from credentials order by app_name, key_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w: %w", common.ErrPersistence, err)
	}
	defer rows.Close()

	result := make([]models.CredentialMetadata, 0)
	for rows.Next() {
		var m models.CredentialMetadata
		var created, updated int64
		if err := rows.Scan(&m.ID, &m.AppName, &m.KeyName, &m.APIURL, &m.Description, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan credential metadata: %w: %w", common.ErrPersistence, err)
		}
		m.CreatedAt = time.Unix(0, created).UTC()
		m.UpdatedAt = time.Unix(0, updated).UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list credentials: %w: %w", common.ErrPersistence, err)
	}
	return result, nil
}

// ListRecords returns all full records ordered by AppName, then KeyName.
func (r *SQLiteRepository) ListRecords(ctx context.Context) ([]models.CredentialRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectFull+` order by app_name, key_name`)
	if err != nil {
		return nil, fmt.Errorf("list credential records: %w: %w", common.ErrPersistence, err)
	}
	defer rows.Close()

	var result []models.CredentialRecord
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list credential records: %w: %w", common.ErrPersistence, err)
	}
	return result, nil
}

// Update replaces all mutable columns of the record identified by rec.ID.
func (r *SQLiteRepository) Update(ctx context.Context, rec *models.CredentialRecord) error {
	query := `update credentials set
			app_name = ?, key_name = ?, api_url = ?, description = ?,
			encrypted_value = ?, nonce = ?, encryption_salt = ?, updated_at = ?
		where id = ?`

	res, err := r.db.ExecContext(ctx, query,
		rec.AppName, rec.KeyName, rec.APIURL, rec.Description,
		rec.EncryptedValue, rec.Nonce, rec.EncryptionSalt,
		rec.UpdatedAt.UnixNano(), rec.ID)
	if err != nil {
		return fmt.Errorf("update credential: %w: %w", common.ErrPersistence, err)
	}
	return requireOneRow(res, rec.ID)
}

// Delete permanently removes a record by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `delete from credentials where id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w: %w", common.ErrPersistence, err)
	}
	return requireOneRow(res, id)
}

// DeleteAll removes every record.
func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `delete from credentials`)
	if err != nil {
		return fmt.Errorf("delete credentials: %w: %w", common.ErrPersistence, err)
	}
	return nil
}

const selectFull = `select id, app_name, key_name, api_url, description,
	encrypted_value, nonce, encryption_salt, created_at, updated_at
	from credentials`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.CredentialRecord, error) {
	rec, err := scanRecordRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return rec, err
}

func scanRecordRows(row rowScanner) (*models.CredentialRecord, error) {
	rec := &models.CredentialRecord{}
	var created, updated int64
	err := row.Scan(&rec.ID, &rec.AppName, &rec.KeyName, &rec.APIURL, &rec.Description,
		&rec.EncryptedValue, &rec.Nonce, &rec.EncryptionSalt, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan credential: %w: %w", common.ErrPersistence, err)
	}
	rec.CreatedAt = time.Unix(0, created).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, nil
}

func requireOneRow(res sql.Result, id string) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w: %w", common.ErrPersistence, err)
	}
	if ra == 0 {
		return fmt.Errorf("credential %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
