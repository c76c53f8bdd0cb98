// Package core contains the core domain types for santa.
package core

import (
	"strings"
	"time"
)

// GameMode selects how assignments are produced for a game.
type GameMode string

const (
	// ModeBatch computes the whole mapping in one step.
	ModeBatch GameMode = "batch"
	// ModeInteractive lets each giver draw a receiver in turn.
	ModeInteractive GameMode = "interactive"
)

// Valid reports whether m is a known mode.
func (m GameMode) Valid() bool {
	return m == ModeBatch || m == ModeInteractive
}

// GameStatus represents the current status of a game.
type GameStatus string

const (
	StatusOpen      GameStatus = "open"
	StatusCompleted GameStatus = "completed"
)

// Participant is a member of a Secret Santa group.
// Name is the identity key within a roster.
type Participant struct {
	Name    string `json:"name" yaml:"name"`
	Contact string `json:"contact,omitempty" yaml:"contact,omitempty"` // e-mail or other handle
	Wishes  string `json:"wishes,omitempty" yaml:"wishes,omitempty"`   // free-text gift preferences
}

// Key returns the normalized identity used to compare participants.
func (p Participant) Key() string {
	return NameKey(p.Name)
}

// NameKey normalizes a participant name for comparison.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameName reports whether two names identify the same participant.
func SameName(a, b string) bool {
	return NameKey(a) == NameKey(b)
}

// Assignment pairs a giver with the receiver they gift.
type Assignment struct {
	Giver    string `json:"giver" yaml:"giver"`
	Receiver string `json:"receiver" yaml:"receiver"`
}

// Game is a named Secret Santa round with its own roster and assignments.
type Game struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Mode        GameMode   `json:"mode"`
	Status      GameStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsModifiable returns true if participants can still be added.
func (g *Game) IsModifiable() bool {
	return g.Status != StatusCompleted
}

// GameSummary is a lightweight representation for listing games.
type GameSummary struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Mode             GameMode   `json:"mode"`
	Status           GameStatus `json:"status"`
	ParticipantCount int        `json:"participant_count"`
	AssignmentCount  int        `json:"assignment_count"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewGameConfig holds the configuration for creating a new game.
type NewGameConfig struct {
	Name         string        `json:"name"`
	Mode         GameMode      `json:"mode"`
	Participants []Participant `json:"participants,omitempty"`
}

// RNG is the source of randomness for shuffles and draws.
// *math/rand.Rand satisfies it, which keeps seeded runs reproducible.
type RNG interface {
	Intn(n int) int
}
