package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	_ "modernc.org/sqlite"
)

// DB holds a read pool and a single-connection write pool on one sqlite file.
type DB struct {
	Path  string
	read  *sql.DB
	write *sql.DB
}

// sqliteDBString constructs a connection string for SQLite with recommended PRAGMA settings
func sqliteDBString(file string, readonly bool) string {
	connectionParams := make(url.Values)
	connectionParams.Add("_pragma", "journal_mode(WAL)")
	connectionParams.Add("_pragma", "busy_timeout(10000)")
	connectionParams.Add("_pragma", "synchronous(NORMAL)")
	connectionParams.Add("_pragma", "cache_size(-20000)") // 20MB cache
	connectionParams.Add("_pragma", "foreign_keys(1)")
	connectionParams.Add("_pragma", "temp_store(MEMORY)")

	if readonly {
		connectionParams.Add("mode", "ro")
	} else {
		connectionParams.Add("_txlock", "immediate")
		connectionParams.Add("mode", "rwc")
	}

	return "file:" + file + "?" + connectionParams.Encode()
}

// openSQLiteDatabase opens a SQLite database with optimized settings
func openSQLiteDatabase(file string, readonly bool) (*sql.DB, error) {
	db, err := sql.Open("sqlite", sqliteDBString(file, readonly))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if readonly {
		// Read pool: allow multiple concurrent connections
		maxConns := max(4, runtime.NumCPU())
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	} else {
		// Write pool: single connection to serialize writes
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	return db, nil
}

// Open sets up the read and write connection pools for the database at
// path, creating its directory and the file itself when missing.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	write, err := openSQLiteDatabase(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open write database: %w", err)
	}
	// The read pool opens the file read-only, so it has to exist first.
	if err := write.Ping(); err != nil {
		write.Close()
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	read, err := openSQLiteDatabase(path, true)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("failed to open read database: %w", err)
	}

	return &DB{Path: path, read: read, write: write}, nil
}

// Read returns the read-only connection pool.
func (d *DB) Read() *sql.DB { return d.read }

// Write returns the read-write connection pool.
func (d *DB) Write() *sql.DB { return d.write }

// WithTx executes a function within an immediate transaction
func (d *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	// _txlock=immediate takes the write lock at BEGIN, so a transaction
	// never fails halfway with SQLITE_BUSY on a lock upgrade.
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes both database connection pools
func (d *DB) Close() error {
	var errs []error

	if err := d.read.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close read database: %w", err))
	}
	if err := d.write.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close write database: %w", err))
	}

	return errors.Join(errs...)
}
