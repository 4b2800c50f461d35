// Package sqlite provides a SQLite-backed match storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arenakit/arena/internal/platform/storage/sqlitemigrate"
	"github.com/arenakit/arena/internal/services/match/domain"
	"github.com/arenakit/arena/internal/services/match/storage"
	"github.com/arenakit/arena/internal/services/match/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists match sessions and moves in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite match store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single pooled connection keeps every transaction serializable and
	// avoids SQLITE_BUSY on write-lock upgrades under concurrent callers.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
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

// Update runs fn inside one writable transaction, committing on nil.
func (s *Store) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.runTx(ctx, fn)
}

// View runs fn inside one transaction used only for reads.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.runTx(ctx, fn)
}

func (s *Store) runTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if fn == nil {
		return fmt.Errorf("transaction function is required")
	}

	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&tx{ctx: ctx, sqlTx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// tx adapts one *sql.Tx to the storage primitives.
type tx struct {
	ctx   context.Context
	sqlTx *sql.Tx
}

// FindJoinableSession picks an arbitrary session with a single participant.
// The query has no ORDER BY on purpose: pairing is non-deterministic.
func (t *tx) FindJoinableSession() (string, bool, error) {
	row := t.sqlTx.QueryRowContext(
		t.ctx,
		`SELECT id FROM sessions WHERE participant_count = 1 LIMIT 1`,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find joinable session: %w", err)
	}
	return id, true, nil
}

func (t *tx) CreateSession(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id is required")
	}
	_, err := t.sqlTx.ExecContext(
		t.ctx,
		`INSERT INTO sessions (id, participant_count) VALUES (?, 1)`,
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrSessionExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (t *tx) ClaimOpenSeat(id string) (bool, error) {
	result, err := t.sqlTx.ExecContext(
		t.ctx,
		`UPDATE sessions
		    SET participant_count = participant_count + 1
		  WHERE id = ? AND participant_count = 1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("claim open seat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim open seat rows: %w", err)
	}
	return affected == 1, nil
}

func (t *tx) SessionCounts(id string) (storage.Counts, error) {
	row := t.sqlTx.QueryRowContext(
		t.ctx,
		`SELECT participant_count FROM sessions WHERE id = ?`,
		id,
	)
	var counts storage.Counts
	if err := row.Scan(&counts.Participants); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Counts{}, storage.ErrNotFound
		}
		return storage.Counts{}, fmt.Errorf("get session: %w", err)
	}

	row = t.sqlTx.QueryRowContext(
		t.ctx,
		`SELECT COUNT(*) FROM moves WHERE session_id = ?`,
		id,
	)
	if err := row.Scan(&counts.Moves); err != nil {
		return storage.Counts{}, fmt.Errorf("count moves: %w", err)
	}
	return counts, nil
}

func (t *tx) InsertMove(sessionID, participantID, choice string) error {
	_, err := t.sqlTx.ExecContext(
		t.ctx,
		`INSERT INTO moves (session_id, participant_id, choice) VALUES (?, ?, ?)`,
		sessionID,
		participantID,
		choice,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateMove
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// ListMoves returns moves in insertion (rowid) order.
func (t *tx) ListMoves(sessionID string) ([]domain.Move, error) {
	rows, err := t.sqlTx.QueryContext(
		t.ctx,
		`SELECT participant_id, choice
		   FROM moves
		  WHERE session_id = ?
		  ORDER BY rowid`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer rows.Close()

	var moves []domain.Move
	for rows.Next() {
		move := domain.Move{SessionID: sessionID}
		if err := rows.Scan(&move.ParticipantID, &move.Choice); err != nil {
			return nil, fmt.Errorf("list moves: %w", err)
		}
		moves = append(moves, move)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	return moves, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

var _ storage.SessionStore = (*Store)(nil)
