package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go driver
)

// Entry is one delivered (or dry-run rendered) message.
type Entry struct {
	ID         string
	GroupID    string
	Recipients string
	Subject    string
	MessageID  string
	Mode       string
	SentAt     time.Time
}

// Journal records mail-merge deliveries in a SQLite database.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path, creating parent directories.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS sent_mails (
			id TEXT PRIMARY KEY,
			fs_id TEXT NOT NULL,
			recipients TEXT NOT NULL,
			subject TEXT NOT NULL,
			message_id TEXT NOT NULL,
			mode TEXT NOT NULL CHECK (mode IN ('dry-run', 'live')),
			sent_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sent_mails_sent_at ON sent_mails(sent_at);
	`)
	return err
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e. Empty ID and zero SentAt are filled in; the stored entry
// is returned.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.SentAt.IsZero() {
		e.SentAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sent_mails (id, fs_id, recipients, subject, message_id, mode, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Recipients, e.Subject, e.MessageID, e.Mode, e.SentAt.Unix(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record sent mail for group %s: %w", e.GroupID, err)
	}
	return e, nil
}

// List returns up to limit entries, newest first. A limit <= 0 returns all.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, fs_id, recipients, subject, message_id, mode, sent_at
		FROM sent_mails
		ORDER BY sent_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var sentAt int64
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Recipients, &e.Subject, &e.MessageID, &e.Mode, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.SentAt = time.Unix(sentAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
