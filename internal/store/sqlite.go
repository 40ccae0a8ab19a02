package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its settings in package globals.
var migrateMu sync.Mutex

// SQLite persists rows in a single records table.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := migrate(conn, logger); err != nil {
		conn.Close()
		return nil, err
	}
	return &SQLite{conn: conn}, nil
}

func migrate(conn *sql.DB, logger *slog.Logger) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Load returns the rows of kind ordered by position.
func (s *SQLite) Load(ctx context.Context, kind string) ([]Row, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, position, checksum, payload, updated_at
		FROM records
		WHERE kind = ?
		ORDER BY position, id
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", kind, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			payload string
		)
		if err := rows.Scan(&r.ID, &r.Position, &r.Checksum, &payload, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Payload = []byte(payload)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces rows of kind in one transaction.
func (s *SQLite) Upsert(ctx context.Context, kind string, rows ...Row) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := upsertRows(ctx, tx, kind, rows); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes one row.
func (s *SQLite) Delete(ctx context.Context, kind, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, kind, id); err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", kind, id, err)
	}
	return nil
}

// ReplaceAll swaps every row of kind for rows in one transaction.
func (s *SQLite) ReplaceAll(ctx context.Context, kind string, rows []Row) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, kind); err != nil {
		return fmt.Errorf("store: truncate %s: %w", kind, err)
	}
	if err := upsertRows(ctx, tx, kind, rows); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertRows(ctx context.Context, tx *sql.Tx, kind string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (kind, id, position, checksum, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			position   = excluded.position,
			checksum   = excluded.checksum,
			payload    = excluded.payload,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, kind, r.ID, r.Position, r.Checksum, string(r.Payload), r.UpdatedAt); err != nil {
			return fmt.Errorf("store: upsert %s/%s: %w", kind, r.ID, err)
		}
	}
	return nil
}

// gooseLogger routes migration output through slog so stdout stays clean
// for the MCP stdio transport.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	if l.logger != nil {
		l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
	}
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	if l.logger != nil {
		l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
	}
}
