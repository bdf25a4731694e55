package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ HistoryRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY on concurrent uploads
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Record(ctx context.Context, rec UploadRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO uploads (id, source, rows_in, rows_kept, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Source, rec.RowsIn, rec.RowsKept, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	slog.DebugContext(ctx, "Upload recorded",
		"id", rec.ID,
		"source", rec.Source,
		"rows_in", rec.RowsIn,
		"rows_kept", rec.RowsKept)
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]UploadRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, rows_in, rows_kept, created_at FROM uploads ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	out := []UploadRecord{}
	for rows.Next() {
		var (
			rec       UploadRecord
			id        string
			createdAt string
		)
		if err := rows.Scan(&id, &rec.Source, &rec.RowsIn, &rec.RowsKept, &createdAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse upload id %q: %w", id, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return out, nil
}
