// Package storage opens the local vault database, applies schema migrations,
// and guards the vault file against a second concurrent process.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/flock"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/pinvault/internal/filex"
	"github.com/dmitrijs2005/pinvault/internal/migrations"
)

// ErrVaultBusy is returned by AcquireLock when another process already holds
// the vault lockfile.
var ErrVaultBusy = errors.New("vault is in use by another process")

// RunMigrations applies all pending schema migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open creates the vault's data directory if needed, opens the SQLite
// database at path, and brings the schema up to date.
//
// SQLite allows a single writer; the engine serializes writes through one
// connection to avoid SQLITE_BUSY under concurrent callers.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open vault database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate vault database: %w", err)
	}
	return db, nil
}

// AcquireLock takes an exclusive advisory lock on the vault lockfile so two
// processes cannot open the same vault. Release with Unlock when done.
func AcquireLock(path string) (*flock.Flock, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock vault: %w", err)
	}
	if !locked {
		return nil, ErrVaultBusy
	}
	return fl, nil
}
