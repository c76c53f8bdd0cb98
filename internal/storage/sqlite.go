package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/alienxp03/santa/internal/core"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mode TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS participants (
		game_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL,
		contact TEXT NOT NULL DEFAULT '',
		wishes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		PRIMARY KEY (game_id, name_key),
		FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS assignments (
		game_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		giver TEXT NOT NULL,
		giver_key TEXT NOT NULL,
		receiver TEXT NOT NULL,
		receiver_key TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (game_id, giver_key),
		UNIQUE (game_id, receiver_key),
		FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_participants_position ON participants(game_id, position);
	CREATE INDEX IF NOT EXISTS idx_assignments_position ON assignments(game_id, position);
	CREATE INDEX IF NOT EXISTS idx_games_created_at ON games(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateGame creates a new game.
func (s *SQLiteStorage) CreateGame(game *core.Game) error {
	query := `
	INSERT INTO games (id, name, mode, status, created_at, updated_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		game.ID,
		game.Name,
		game.Mode,
		game.Status,
		game.CreatedAt,
		game.UpdatedAt,
		game.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	return nil
}

// GetGame retrieves a game by ID.
func (s *SQLiteStorage) GetGame(id string) (*core.Game, error) {
	query := `
	SELECT id, name, mode, status, created_at, updated_at, completed_at
	FROM games
	WHERE id = ?
	`

	var game core.Game
	var completedAt sql.NullTime

	err := s.db.QueryRow(query, id).Scan(
		&game.ID,
		&game.Name,
		&game.Mode,
		&game.Status,
		&game.CreatedAt,
		&game.UpdatedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if completedAt.Valid {
		game.CompletedAt = &completedAt.Time
	}

	return &game, nil
}

// UpdateGame updates an existing game.
func (s *SQLiteStorage) UpdateGame(game *core.Game) error {
	game.UpdatedAt = time.Now()

	query := `
	UPDATE games
	SET name = ?, mode = ?, status = ?, updated_at = ?, completed_at = ?
	WHERE id = ?
	`

	_, err := s.db.Exec(query,
		game.Name,
		game.Mode,
		game.Status,
		game.UpdatedAt,
		game.CompletedAt,
		game.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

// DeleteGame deletes a game with its participants and assignments.
func (s *SQLiteStorage) DeleteGame(id string) error {
	_, err := s.db.Exec("DELETE FROM games WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

// ListGames returns a list of game summaries, newest first.
func (s *SQLiteStorage) ListGames(limit, offset int) ([]*core.GameSummary, error) {
	query := `
	SELECT g.id, g.name, g.mode, g.status, g.created_at,
		   (SELECT COUNT(*) FROM participants WHERE game_id = g.id) AS participant_count,
		   (SELECT COUNT(*) FROM assignments WHERE game_id = g.id) AS assignment_count
	FROM games g
	ORDER BY g.created_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var summaries []*core.GameSummary
	for rows.Next() {
		var summary core.GameSummary
		err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Mode,
			&summary.Status,
			&summary.CreatedAt,
			&summary.ParticipantCount,
			&summary.AssignmentCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game summary: %w", err)
		}
		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

// AddParticipant appends a participant to a game's roster.
func (s *SQLiteStorage) AddParticipant(gameID string, p core.Participant) error {
	query := `
	INSERT INTO participants (game_id, position, name, name_key, contact, wishes, created_at)
	VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM participants WHERE game_id = ?), ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, gameID, gameID, p.Name, p.Key(), p.Contact, p.Wishes, time.Now())
	if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %q", core.ErrDuplicateIdentity, p.Name)
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	return nil
}

// GetParticipants returns a game's roster in the order it was entered.
func (s *SQLiteStorage) GetParticipants(gameID string) ([]core.Participant, error) {
	query := `
	SELECT name, contact, wishes
	FROM participants
	WHERE game_id = ?
	ORDER BY position ASC
	`

	rows, err := s.db.Query(query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var roster []core.Participant
	for rows.Next() {
		var p core.Participant
		if err := rows.Scan(&p.Name, &p.Contact, &p.Wishes); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		roster = append(roster, p)
	}

	return roster, rows.Err()
}

// SaveAssignments replaces a game's assignments with set.
func (s *SQLiteStorage) SaveAssignments(gameID string, set core.AssignmentSet) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM assignments WHERE game_id = ?", gameID); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO assignments (game_id, position, giver, giver_key, receiver, receiver_key, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, a := range set {
		_, err := stmt.Exec(gameID, i+1, a.Giver, core.NameKey(a.Giver), a.Receiver, core.NameKey(a.Receiver), now)
		if err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignments: %w", err)
	}
	return nil
}

// AddAssignment appends one committed pair.
func (s *SQLiteStorage) AddAssignment(gameID string, a core.Assignment) error {
	query := `
	INSERT INTO assignments (game_id, position, giver, giver_key, receiver, receiver_key, created_at)
	VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM assignments WHERE game_id = ?), ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, gameID, gameID, a.Giver, core.NameKey(a.Giver), a.Receiver, core.NameKey(a.Receiver), time.Now())
	if isConstraint(err, sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("%w: %s -> %s conflicts with a stored pair", core.ErrInvalidAssignment, a.Giver, a.Receiver)
	}
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

// DeleteAssignment removes the pair for giver.
func (s *SQLiteStorage) DeleteAssignment(gameID, giver string) error {
	_, err := s.db.Exec("DELETE FROM assignments WHERE game_id = ? AND giver_key = ?", gameID, core.NameKey(giver))
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// GetAssignments returns a game's assignments in commit order.
func (s *SQLiteStorage) GetAssignments(gameID string) (core.AssignmentSet, error) {
	query := `
	SELECT giver, receiver
	FROM assignments
	WHERE game_id = ?
	ORDER BY position ASC
	`

	rows, err := s.db.Query(query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	defer rows.Close()

	set := core.AssignmentSet{}
	for rows.Next() {
		var a core.Assignment
		if err := rows.Scan(&a.Giver, &a.Receiver); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		set = append(set, a)
	}

	return set, rows.Err()
}

func isConstraint(err error, codes ...sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return false
	}
	for _, code := range codes {
		if sqliteErr.ExtendedCode == code {
			return true
		}
	}
	return false
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "santa.db"
	}
	return filepath.Join(home, ".santa", "santa.db")
}
