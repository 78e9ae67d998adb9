package history

import (
	"cloakbot/internal/core/domain"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id     INTEGER NOT NULL,
	route       TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	artifacts   INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_chat ON jobs(chat_id, created_at);
`

// SQLite keeps a log of processed jobs. Only outcomes are stored, never image data or file names.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	log.Debug().Str("path", path).Msg("opened job history")

	return &SQLite{db: db}, nil
}

func (s *SQLite) Record(ctx context.Context, record domain.JobRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (chat_id, route, reason, artifacts, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ChatID, string(record.Route), string(record.Reason), record.Artifacts,
		record.Duration.Milliseconds(), record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}

	return nil
}

func (s *SQLite) Stats(ctx context.Context, chatID int64) (domain.JobStats, error) {
	var stats domain.JobStats

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN reason = '' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(artifacts), 0)
		   FROM jobs WHERE chat_id = ?`, chatID,
	).Scan(&stats.Total, &stats.Succeeded, &stats.Artifacts)
	if err != nil {
		return domain.JobStats{}, fmt.Errorf("failed to query job stats: %w", err)
	}

	stats.Failed = stats.Total - stats.Succeeded

	return stats, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
