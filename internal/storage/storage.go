// Package storage provides persistence for Secret Santa games.
package storage

import (
	"github.com/alienxp03/santa/internal/core"
)

// Storage defines the interface for game persistence.
//
// Lookups of missing rows return a nil value and a nil error, and
// GetAssignments returns an empty set when nothing has been stored yet.
type Storage interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// Game operations
	CreateGame(game *core.Game) error
	GetGame(id string) (*core.Game, error)
	UpdateGame(game *core.Game) error
	DeleteGame(id string) error
	ListGames(limit, offset int) ([]*core.GameSummary, error)

	// Participant operations
	AddParticipant(gameID string, p core.Participant) error
	GetParticipants(gameID string) ([]core.Participant, error)

	// Assignment operations
	SaveAssignments(gameID string, set core.AssignmentSet) error
	AddAssignment(gameID string, a core.Assignment) error
	DeleteAssignment(gameID, giver string) error
	GetAssignments(gameID string) (core.AssignmentSet, error)
}
