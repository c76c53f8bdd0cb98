package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alienxp03/santa/internal/core"
)

type memoryGame struct {
	game        core.Game
	seq         int
	roster      []core.Participant
	assignments core.AssignmentSet
}

// MemoryStorage implements Storage in process memory. It is used by tests
// and by `santa serve --db :memory:`.
type MemoryStorage struct {
	mu    sync.Mutex
	games map[string]*memoryGame
	seq   int
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{games: make(map[string]*memoryGame)}
}

// Initialize implements Storage.
func (m *MemoryStorage) Initialize() error { return nil }

// Close implements Storage.
func (m *MemoryStorage) Close() error { return nil }

// CreateGame implements Storage.
func (m *MemoryStorage) CreateGame(game *core.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[game.ID]; ok {
		return fmt.Errorf("failed to insert game: id %q already exists", game.ID)
	}
	m.seq++
	m.games[game.ID] = &memoryGame{game: *game, seq: m.seq, assignments: core.AssignmentSet{}}
	return nil
}

// GetGame implements Storage.
func (m *MemoryStorage) GetGame(id string) (*core.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	game := g.game
	return &game, nil
}

// UpdateGame implements Storage.
func (m *MemoryStorage) UpdateGame(game *core.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	game.UpdatedAt = time.Now()
	if g, ok := m.games[game.ID]; ok {
		g.game = *game
	}
	return nil
}

// DeleteGame implements Storage.
func (m *MemoryStorage) DeleteGame(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.games, id)
	return nil
}

// ListGames implements Storage.
func (m *MemoryStorage) ListGames(limit, offset int) ([]*core.GameSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	games := make([]*memoryGame, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool {
		if !games[i].game.CreatedAt.Equal(games[j].game.CreatedAt) {
			return games[i].game.CreatedAt.After(games[j].game.CreatedAt)
		}
		return games[i].seq > games[j].seq
	})

	var summaries []*core.GameSummary
	for i, g := range games {
		if i < offset {
			continue
		}
		if limit >= 0 && len(summaries) >= limit {
			break
		}
		summaries = append(summaries, &core.GameSummary{
			ID:               g.game.ID,
			Name:             g.game.Name,
			Mode:             g.game.Mode,
			Status:           g.game.Status,
			ParticipantCount: len(g.roster),
			AssignmentCount:  len(g.assignments),
			CreatedAt:        g.game.CreatedAt,
		})
	}
	return summaries, nil
}

// AddParticipant implements Storage.
func (m *MemoryStorage) AddParticipant(gameID string, p core.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("failed to insert participant: %w", core.ErrGameNotFound)
	}
	if _, dup := core.FindParticipant(g.roster, p.Name); dup {
		return fmt.Errorf("%w: %q", core.ErrDuplicateIdentity, p.Name)
	}
	g.roster = append(g.roster, p)
	return nil
}

// GetParticipants implements Storage.
func (m *MemoryStorage) GetParticipants(gameID string) ([]core.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok || len(g.roster) == 0 {
		return nil, nil
	}
	roster := make([]core.Participant, len(g.roster))
	copy(roster, g.roster)
	return roster, nil
}

// SaveAssignments implements Storage.
func (m *MemoryStorage) SaveAssignments(gameID string, set core.AssignmentSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("failed to save assignments: %w", core.ErrGameNotFound)
	}
	g.assignments = set.Clone()
	return nil
}

// AddAssignment implements Storage.
func (m *MemoryStorage) AddAssignment(gameID string, a core.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("failed to insert assignment: %w", core.ErrGameNotFound)
	}
	if _, taken := g.assignments.ReceiverOf(a.Giver); taken {
		return fmt.Errorf("%w: %s -> %s conflicts with a stored pair", core.ErrInvalidAssignment, a.Giver, a.Receiver)
	}
	if _, taken := g.assignments.GiverOf(a.Receiver); taken {
		return fmt.Errorf("%w: %s -> %s conflicts with a stored pair", core.ErrInvalidAssignment, a.Giver, a.Receiver)
	}
	g.assignments = append(g.assignments, a)
	return nil
}

// DeleteAssignment implements Storage.
func (m *MemoryStorage) DeleteAssignment(gameID, giver string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return nil
	}
	kept := g.assignments[:0]
	for _, a := range g.assignments {
		if !core.SameName(a.Giver, giver) {
			kept = append(kept, a)
		}
	}
	g.assignments = kept
	return nil
}

// GetAssignments implements Storage.
func (m *MemoryStorage) GetAssignments(gameID string) (core.AssignmentSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return core.AssignmentSet{}, nil
	}
	return append(core.AssignmentSet{}, g.assignments...), nil
}
