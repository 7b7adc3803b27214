package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one recorded device action
type Entry struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	Source     string    `json:"source"`
	ActionType string    `json:"action_type"`
	Action     string    `json:"action"`
	Nonce      string    `json:"nonce,omitempty"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Journal persists device actions in SQLite
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// one writer; the driver serialises anyway and :memory: needs a single connection
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return j, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			source TEXT NOT NULL,
			action_type TEXT NOT NULL,
			action TEXT NOT NULL,
			nonce TEXT,
			success INTEGER NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_device_created ON actions(device_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := j.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Record stores an entry. ID and CreatedAt are filled in when empty.
func (j *Journal) Record(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	// stored as text, so a single zone keeps ordering and Prune comparisons valid
	entry.CreatedAt = entry.CreatedAt.UTC()

	query := `INSERT INTO actions (id, device_id, source, action_type, action, nonce, success, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := j.db.ExecContext(ctx, query,
		entry.ID, entry.DeviceID, entry.Source, entry.ActionType, entry.Action,
		entry.Nonce, entry.Success, entry.Error, entry.DurationMs, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}

	return nil
}

// Recent returns the newest entries for a device, newest first
func (j *Journal) Recent(ctx context.Context, deviceID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, device_id, source, action_type, action, nonce, success, error, duration_ms, created_at
		FROM actions WHERE device_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			entry    Entry
			nonce    sql.NullString
			errorMsg sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.DeviceID, &entry.Source, &entry.ActionType, &entry.Action,
			&nonce, &entry.Success, &errorMsg, &entry.DurationMs, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		entry.Nonce = nonce.String
		entry.Error = errorMsg.String
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the number of entries stored for a device
func (j *Journal) Count(ctx context.Context, deviceID string) (int, error) {
	var count int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM actions WHERE device_id = ?`, deviceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}

// Prune deletes entries older than the cutoff and returns how many were removed
func (j *Journal) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx, `DELETE FROM actions WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune actions: %w", err)
	}
	return result.RowsAffected()
}
