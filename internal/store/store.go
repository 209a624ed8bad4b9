// Package store keeps dashboard documents in sqlite with a version history.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/google/uuid"

	"dashgrid/internal/schema"
	"dashgrid/pkg/db"
	"dashgrid/pkg/migration"
)

var (
	ErrNotFound        = errors.New("dashboard not found")
	ErrVersionNotFound = errors.New("dashboard version not found")
)

// Record is the stored metadata of a dashboard.
type Record struct {
	UID        string
	Title      string
	Version    int
	LayoutKind string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Revision is one entry of a dashboard's history.
type Revision struct {
	UID       string
	Version   int
	Message   string
	CreatedAt time.Time
}

// Store manages dashboards persisted to sqlite.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// Open opens the database at path and brings its schema up to date.
func Open(ctx context.Context, path string) (*Store, error) {
	d, err := db.Open(path)
	if err != nil {
		return nil, err
	}

	// Run migrations automatically
	if err := migration.NewRunner(d.Write()).Run(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: d, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save stores doc as the next version of its dashboard. A document without
// a UID gets a fresh one, written back into doc. Saving a document identical
// to the latest version stores nothing and returns the existing record.
func (s *Store) Save(ctx context.Context, doc *schema.Dashboard, message string) (Record, error) {
	if doc.UID == "" {
		doc.UID = uuid.NewString()
	}
	data, err := schema.Encode(doc, schema.FormatJSON)
	if err != nil {
		return Record{}, err
	}

	var rec Record
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var (
			current []byte
			created int64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT version, data, created_at FROM dashboards WHERE uid = ?`, doc.UID).
			Scan(&rec.Version, &current, &created)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			created = s.now().Unix()
		case err != nil:
			return err
		case bytes.Equal(current, data):
			rec, err = scanRecord(tx.QueryRowContext(ctx, selectRecord+` WHERE uid = ?`, doc.UID))
			return err
		}

		now := s.now().Unix()
		rec = Record{
			UID:        doc.UID,
			Title:      doc.Title,
			Version:    rec.Version + 1,
			LayoutKind: doc.Layout.Kind,
			CreatedAt:  time.Unix(created, 0),
			UpdatedAt:  time.Unix(now, 0),
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dashboards(uid, title, version, layout_kind, data, created_at, updated_at)
			 VALUES(?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(uid) DO UPDATE SET
			   title = excluded.title,
			   version = excluded.version,
			   layout_kind = excluded.layout_kind,
			   data = excluded.data,
			   updated_at = excluded.updated_at`,
			rec.UID, rec.Title, rec.Version, rec.LayoutKind, string(data), created, now); err != nil {
			return fmt.Errorf("failed to write dashboard: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dashboard_versions(uid, version, message, data, created_at) VALUES(?, ?, ?, ?, ?)`,
			rec.UID, rec.Version, message, string(data), now); err != nil {
			return fmt.Errorf("failed to write version: %w", err)
		}
		return nil
	})
	return rec, err
}

const selectRecord = `SELECT uid, title, version, layout_kind, created_at, updated_at FROM dashboards`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r                Record
		created, updated int64
	)
	if err := row.Scan(&r.UID, &r.Title, &r.Version, &r.LayoutKind, &created, &updated); err != nil {
		return Record{}, err
	}
	r.CreatedAt = time.Unix(created, 0)
	r.UpdatedAt = time.Unix(updated, 0)
	return r, nil
}

// Get returns the latest version of a dashboard.
func (s *Store) Get(ctx context.Context, uid string) (*schema.Dashboard, Record, error) {
	rec, err := scanRecord(s.db.Read().QueryRowContext(ctx, selectRecord+` WHERE uid = ?`, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Record{}, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	if err != nil {
		return nil, Record{}, err
	}
	doc, err := s.GetVersion(ctx, uid, rec.Version)
	if err != nil {
		return nil, Record{}, err
	}
	return doc, rec, nil
}

// GetVersion returns one stored version of a dashboard.
func (s *Store) GetVersion(ctx context.Context, uid string, version int) (*schema.Dashboard, error) {
	var data []byte
	err := s.db.Read().QueryRowContext(ctx,
		`SELECT data FROM dashboard_versions WHERE uid = ? AND version = ?`, uid, version).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s@%d", ErrVersionNotFound, uid, version)
	}
	if err != nil {
		return nil, err
	}
	return schema.Decode(data, schema.FormatJSON)
}

// List returns every dashboard ordered by title.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Read().QueryContext(ctx, selectRecord+` ORDER BY title, uid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Delete removes a dashboard and its history.
func (s *Store) Delete(ctx context.Context, uid string) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM dashboard_versions WHERE uid = ?`, uid); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM dashboards WHERE uid = ?`, uid)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, uid)
		}
		return nil
	})
}

// History returns the versions of a dashboard, newest first.
func (s *Store) History(ctx context.Context, uid string) ([]Revision, error) {
	rows, err := s.db.Read().QueryContext(ctx,
		`SELECT uid, version, message, created_at FROM dashboard_versions WHERE uid = ? ORDER BY version DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var (
			r       Revision
			created int64
		)
		if err := rows.Scan(&r.UID, &r.Version, &r.Message, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(created, 0)
		revs = append(revs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return revs, nil
}

// Diff renders a unified diff between two versions of a dashboard, both
// encoded as YAML. An empty string means the versions are identical.
func (s *Store) Diff(ctx context.Context, uid string, from, to int) (string, error) {
	render := func(version int) (string, error) {
		doc, err := s.GetVersion(ctx, uid, version)
		if err != nil {
			return "", err
		}
		data, err := schema.Encode(doc, schema.FormatYAML)
		return string(data), err
	}

	before, err := render(from)
	if err != nil {
		return "", err
	}
	after, err := render(to)
	if err != nil {
		return "", err
	}
	return udiff.Unified(fmt.Sprintf("%s@%d", uid, from), fmt.Sprintf("%s@%d", uid, to), before, after), nil
}
