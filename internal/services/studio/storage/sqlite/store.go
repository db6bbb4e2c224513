// Package sqlite provides a SQLite-backed preset store.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/promptforge/internal/core/preset"
	sqlitemigrate "github.com/louisbranch/promptforge/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/promptforge/internal/services/studio/storage"
	"github.com/louisbranch/promptforge/internal/services/studio/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists presets in SQLite as JSON payloads keyed by name.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite preset store, creating the parent directory, and
// applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreatePreset inserts a new preset. A name already in use yields
// storage.ErrAlreadyExists.
func (s *Store) CreatePreset(ctx context.Context, p storage.Preset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	p, payload, err := prepare(p)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO presets (name, payload, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.Name,
		payload,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		if isPresetUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create preset: %w", err)
	}
	return nil
}

// PutPreset inserts or replaces a preset, keeping the original created_at
// of an existing row.
func (s *Store) PutPreset(ctx context.Context, p storage.Preset) (storage.Preset, error) {
	if err := ctx.Err(); err != nil {
		return storage.Preset{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Preset{}, fmt.Errorf("storage is not configured")
	}
	p, payload, err := prepare(p)
	if err != nil {
		return storage.Preset{}, err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO presets (name, payload, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		p.Name,
		payload,
		toMillis(p.CreatedAt),
		toMillis(p.UpdatedAt),
	)
	if err != nil {
		return storage.Preset{}, fmt.Errorf("put preset: %w", err)
	}
	return s.GetPreset(ctx, p.Name)
}

// GetPreset returns one preset by name.
func (s *Store) GetPreset(ctx context.Context, name string) (storage.Preset, error) {
	if err := ctx.Err(); err != nil {
		return storage.Preset{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Preset{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Preset{}, storage.ErrNameRequired
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT name, payload, created_at, updated_at FROM presets WHERE name = ?`,
		name,
	)
	p, err := scanPreset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Preset{}, storage.ErrNotFound
		}
		return storage.Preset{}, fmt.Errorf("get preset: %w", err)
	}
	return p, nil
}

// ListPresets returns one page of presets ordered by name. The page token
// is the last name of the previous page.
func (s *Store) ListPresets(ctx context.Context, pageSize int, pageToken string) (storage.PresetPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.PresetPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PresetPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return storage.PresetPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT name, payload, created_at, updated_at
		   FROM presets
		  WHERE name > ?
		  ORDER BY name ASC
		  LIMIT ?`,
		pageToken,
		pageSize+1,
	)
	if err != nil {
		return storage.PresetPage{}, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	page := storage.PresetPage{Presets: make([]storage.Preset, 0, pageSize)}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return storage.PresetPage{}, fmt.Errorf("list presets: %w", err)
		}
		page.Presets = append(page.Presets, p)
	}
	if err := rows.Err(); err != nil {
		return storage.PresetPage{}, fmt.Errorf("list presets: %w", err)
	}
	if len(page.Presets) > pageSize {
		page.NextPageToken = page.Presets[pageSize-1].Name
		page.Presets = page.Presets[:pageSize]
	}
	return page, nil
}

// DeletePreset removes a preset by name.
func (s *Store) DeletePreset(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.ErrNameRequired
	}

	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// prepare trims the name, fills the timestamps, and encodes the snapshot.
func prepare(p storage.Preset) (storage.Preset, string, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = strings.TrimSpace(p.Snapshot.Name)
	}
	if p.Name == "" {
		return storage.Preset{}, "", storage.ErrNameRequired
	}
	createdAt := p.CreatedAt.UTC()
	updatedAt := p.UpdatedAt.UTC()
	if createdAt.IsZero() && updatedAt.IsZero() {
		createdAt = time.Now().UTC()
		updatedAt = createdAt
	} else {
		if createdAt.IsZero() {
			createdAt = updatedAt
		}
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	p.Snapshot.Name = p.Name

	var buf bytes.Buffer
	if err := preset.Encode(&buf, preset.FormatJSON, p.Snapshot); err != nil {
		return storage.Preset{}, "", fmt.Errorf("encode preset: %w", err)
	}
	return p, buf.String(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreset(row rowScanner) (storage.Preset, error) {
	var (
		p         storage.Preset
		payload   string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&p.Name, &payload, &createdAt, &updatedAt); err != nil {
		return storage.Preset{}, err
	}
	snap, err := preset.Decode(strings.NewReader(payload), preset.FormatJSON)
	if err != nil {
		return storage.Preset{}, err
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	snap.CreatedAt = p.CreatedAt
	p.Snapshot = snap
	return p, nil
}

func isPresetUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "presets.name")
}

var _ storage.PresetStore = (*Store)(nil)
