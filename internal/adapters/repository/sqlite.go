package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/pkg/metrics"

	_ "modernc.org/sqlite"
)

// DriverSQLite stores records in a single SQLite database file.
const DriverSQLite = "sqlite"

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS screenings (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		created_at TEXT NOT NULL,
		wellness_score INTEGER NOT NULL,
		tier INTEGER NOT NULL,
		tier_rule TEXT NOT NULL,
		emergency_flag INTEGER NOT NULL DEFAULT 0,
		doc TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_screenings_user ON screenings(user_id);
	CREATE INDEX IF NOT EXISTS idx_screenings_created_at ON screenings(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_screenings_tier ON screenings(tier);
`

// SQLiteStore persists records in SQLite. The full record is kept as JSON in
// the doc column; the other columns exist for querying.
type SQLiteStore struct {
	conn *sql.DB
	path string
	opts options
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrMissingStorePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection keeps the
	// per-connection pragmas below in effect for every statement.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize screenings schema: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path, opts: applyOptions(opts)}
	return s, nil
}

func (s *SQLiteStore) AppendRecord(ctx context.Context, rec model.Record) (id string, err error) {
	start := time.Now()
	defer func() { observeAppend(DriverSQLite, start, err) }()

	doc, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	id = s.opts.newID()
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO screenings (id, user_id, created_at, wellness_score, tier, tier_rule, emergency_flag, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		nullString(rec.UserID),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.WellnessScore,
		int(rec.Tier),
		rec.TierRule,
		rec.EmergencyFlag,
		string(doc),
	)
	if err != nil {
		return "", unavailable("insert screening", err)
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Record, error) {
	var doc string
	err := s.conn.QueryRowContext(ctx, `SELECT doc FROM screenings WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository_sqlite", "not_found")
		return model.Record{}, ErrNotFound
	}
	if err != nil {
		return model.Record{}, unavailable("select screening", err)
	}

	var rec model.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return model.Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return rec, nil
}

// Count returns the number of rows, or 0 when the database cannot be read.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM screenings`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository_sqlite", "count_failed")
		return 0
	}
	return n
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
