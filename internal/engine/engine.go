// Package engine orchestrates Secret Santa games: it persists rosters and
// assignments, runs batch generation and interactive rounds, notifies givers
// and publishes round events.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alienxp03/santa/internal/core"
	"github.com/alienxp03/santa/internal/derange"
	"github.com/alienxp03/santa/internal/draw"
	"github.com/alienxp03/santa/internal/export"
	"github.com/alienxp03/santa/internal/notify"
	"github.com/alienxp03/santa/internal/storage"
)

// DefaultGameName is used when a game is created without a name.
const DefaultGameName = "Secret Santa"

// Engine orchestrates games.
type Engine struct {
	storage storage.Storage
	hub     *Hub

	notifier      notify.Notifier
	notifyTimeout time.Duration
	concurrency   int
	policy        draw.Policy
	strategy      derange.Strategy
	spinner       draw.Spinner
	rng           core.RNG
	logger        *slog.Logger

	mu     sync.Mutex
	rounds map[string]*round
}

// round is the live draw engine of one interactive game. mu serializes the
// operations that write to storage.
type round struct {
	mu  sync.Mutex
	eng *draw.Engine
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets who is told about assignments.
func WithNotifier(n notify.Notifier, timeout time.Duration, concurrency int) Option {
	return func(e *Engine) {
		e.notifier = n
		e.notifyTimeout = timeout
		e.concurrency = concurrency
	}
}

// WithPolicy sets the deadlock policy of interactive rounds.
func WithPolicy(p draw.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithStrategy sets the batch generation strategy.
func WithStrategy(s derange.Strategy) Option {
	return func(e *Engine) { e.strategy = s }
}

// WithSpinner sets the spinner of interactive rounds.
func WithSpinner(s draw.Spinner) Option {
	return func(e *Engine) { e.spinner = s }
}

// WithRand sets the random source for generation and draws.
func WithRand(rng core.RNG) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithHub sets the hub round events are published to.
func WithHub(h *Hub) Option {
	return func(e *Engine) { e.hub = h }
}

// New creates a new game engine.
func New(store storage.Storage, opts ...Option) *Engine {
	e := &Engine{
		storage:  store,
		policy:   draw.PolicyGuarded,
		strategy: derange.StrategyReject,
		spinner:  draw.Instant,
		rounds:   make(map[string]*round),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.hub == nil {
		e.hub = NewHub(0)
	}
	if e.rng == nil {
		e.rng = core.DefaultRNG()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.concurrency <= 0 {
		e.concurrency = 4
	}
	return e
}

// Hub returns the hub round events are published to.
func (e *Engine) Hub() *Hub {
	return e.hub
}

// Subscribe streams the events of gameID until cancel is called or the game
// is deleted.
func (e *Engine) Subscribe(gameID string) (<-chan GameEvent, func(), error) {
	if _, err := e.GetGame(gameID); err != nil {
		return nil, nil, err
	}
	ch, cancel := e.hub.Subscribe(gameID)
	return ch, cancel, nil
}

// CreateGame creates a new game with an optional initial roster.
func (e *Engine) CreateGame(ctx context.Context, config core.NewGameConfig) (*core.Game, error) {
	e.logger.Debug("Creating new game", "name", config.Name, "mode", config.Mode, "participants", len(config.Participants))

	name := strings.TrimSpace(config.Name)
	if name == "" {
		name = DefaultGameName
	}
	mode := config.Mode
	if mode == "" {
		mode = core.ModeInteractive
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid game mode: %s", mode)
	}

	roster := normalize(config.Participants)
	if err := core.ValidateRoster(roster); err != nil {
		return nil, err
	}

	now := time.Now()
	game := &core.Game{
		ID:        core.NewGameID(),
		Name:      name,
		Mode:      mode,
		Status:    core.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.storage.CreateGame(game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	for _, p := range roster {
		if err := e.storage.AddParticipant(game.ID, p); err != nil {
			e.storage.DeleteGame(game.ID)
			return nil, fmt.Errorf("failed to add participant %s: %w", p.Name, err)
		}
	}

	e.logger.Info("Game created", "id", game.ID, "name", game.Name, "mode", game.Mode)
	return game, nil
}

// GetGame retrieves a game by ID.
func (e *Engine) GetGame(id string) (*core.Game, error) {
	game, err := e.storage.GetGame(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrGameNotFound, id)
	}
	return game, nil
}

// ListGames returns a list of games.
func (e *Engine) ListGames(limit, offset int) ([]*core.GameSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	return e.storage.ListGames(limit, offset)
}

// DeleteGame deletes a game and closes its event streams.
func (e *Engine) DeleteGame(id string) error {
	if _, err := e.GetGame(id); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.rounds, id)
	e.mu.Unlock()

	if err := e.storage.DeleteGame(id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	e.hub.Drop(id)
	return nil
}

// Participants returns the roster of a game.
func (e *Engine) Participants(gameID string) ([]core.Participant, error) {
	if _, err := e.GetGame(gameID); err != nil {
		return nil, err
	}
	roster, err := e.storage.GetParticipants(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	if roster == nil {
		roster = []core.Participant{}
	}
	return roster, nil
}

// AddParticipant appends p to the roster of an open game. Interactive games
// accept newcomers between rounds.
func (e *Engine) AddParticipant(ctx context.Context, gameID string, p core.Participant) error {
	p = normalizeOne(p)
	if p.Key() == "" {
		return core.ErrInvalidParticipant
	}

	game, err := e.GetGame(gameID)
	if err != nil {
		return err
	}
	if !game.IsModifiable() {
		return fmt.Errorf("%w: participants cannot join a completed game", core.ErrGameFinished)
	}

	if game.Mode == core.ModeInteractive {
		r, err := e.round(gameID)
		if err != nil {
			return err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if err := r.eng.CanAdd(p); err != nil {
			return err
		}
		if err := e.storeParticipant(gameID, p); err != nil {
			return err
		}
		if err := r.eng.Add(p); err != nil {
			// A giver was chosen after the check. Rebuild the round from
			// storage on next use so it includes the newcomer.
			e.logger.Warn("Round changed while adding participant", "game", gameID, "name", p.Name, "error", err)
			e.dropRound(gameID, r)
		}
		e.logger.Debug("Participant added", "game", gameID, "name", p.Name)
		return nil
	}

	if err := e.storeParticipant(gameID, p); err != nil {
		return err
	}
	e.logger.Debug("Participant added", "game", gameID, "name", p.Name)
	return nil
}

func (e *Engine) storeParticipant(gameID string, p core.Participant) error {
	if err := e.storage.AddParticipant(gameID, p); err != nil {
		if errors.Is(err, core.ErrDuplicateIdentity) {
			return err
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

// dropRound forgets the cached round of gameID if it is still r.
func (e *Engine) dropRound(gameID string, r *round) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rounds[gameID] == r {
		delete(e.rounds, gameID)
	}
}

// GenerateResult is the outcome of a batch generation.
type GenerateResult struct {
	Assignments core.AssignmentSet `json:"assignments"`
	Notified    int                `json:"notified"`
	Failed      []string           `json:"notify_failed,omitempty"`
}

// Generate computes every assignment of a batch game at once, stores them,
// completes the game and notifies each giver. Notification failures are
// reported in the result and never undo the assignments.
func (e *Engine) Generate(ctx context.Context, gameID string) (*GenerateResult, error) {
	game, err := e.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	if game.Mode != core.ModeBatch {
		return nil, fmt.Errorf("%w: interactive games are drawn round by round", core.ErrInvalidState)
	}
	if !game.IsModifiable() {
		return nil, core.ErrGameFinished
	}

	roster, err := e.storage.GetParticipants(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	set, err := derange.Generate(roster, e.rng, e.strategy)
	if err != nil {
		return nil, err
	}
	if err := e.storage.SaveAssignments(gameID, set); err != nil {
		return nil, fmt.Errorf("failed to save assignments: %w", err)
	}
	if err := e.complete(game); err != nil {
		return nil, err
	}
	e.logger.Info("Assignments generated", "game", gameID, "participants", len(roster), "strategy", e.strategy)
	e.hub.Publish(gameID, draw.Event{Type: draw.EventFinished, State: draw.StateFinished, At: time.Now()})

	result := &GenerateResult{Assignments: set}
	if e.notifier == nil {
		return result, nil
	}

	report, err := notify.All(ctx, e.timed(e.notifier), roster, set, e.concurrency)
	if err != nil {
		// The assignments are stored; only delivery was cut short.
		e.logger.Error("Notification batch interrupted", "game", gameID, "error", err)
	}
	result.Notified = report.Sent
	for _, f := range report.Failed {
		result.Failed = append(result.Failed, f.Giver)
		e.logger.Warn("Failed to notify giver", "game", gameID, "giver", f.Giver, "notifier", f.Notifier, "error", f.Err)
	}
	return result, nil
}

// Assignments returns the assignments stored for a game.
func (e *Engine) Assignments(gameID string) (core.AssignmentSet, error) {
	if _, err := e.GetGame(gameID); err != nil {
		return nil, err
	}
	set, err := e.storage.GetAssignments(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	return set, nil
}

// Sheet gathers a game with its roster and assignments for export.
func (e *Engine) Sheet(gameID string) (*export.Sheet, error) {
	game, err := e.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	roster, err := e.Participants(gameID)
	if err != nil {
		return nil, err
	}
	set, err := e.Assignments(gameID)
	if err != nil {
		return nil, err
	}
	return &export.Sheet{Game: game, Participants: roster, Assignments: set}, nil
}

// complete marks game completed.
func (e *Engine) complete(game *core.Game) error {
	now := time.Now()
	game.Status = core.StatusCompleted
	game.CompletedAt = &now
	if err := e.storage.UpdateGame(game); err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}
	return nil
}

// reopen marks game open again after a rollback or reset.
func (e *Engine) reopen(gameID string) error {
	game, err := e.GetGame(gameID)
	if err != nil {
		return err
	}
	if game.Status == core.StatusOpen {
		return nil
	}
	game.Status = core.StatusOpen
	game.CompletedAt = nil
	if err := e.storage.UpdateGame(game); err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}
	return nil
}

// timed applies the per-notification deadline to n.
func (e *Engine) timed(n notify.Notifier) notify.Notifier {
	if e.notifyTimeout <= 0 {
		return n
	}
	return notify.Func{ID: n.Name(), Fn: func(ctx context.Context, giver, receiver core.Participant) error {
		ctx, cancel := context.WithTimeout(ctx, e.notifyTimeout)
		defer cancel()
		return n.Notify(ctx, giver, receiver)
	}}
}

func normalize(roster []core.Participant) []core.Participant {
	out := make([]core.Participant, len(roster))
	for i, p := range roster {
		out[i] = normalizeOne(p)
	}
	return out
}

func normalizeOne(p core.Participant) core.Participant {
	p.Name = strings.TrimSpace(p.Name)
	p.Contact = strings.TrimSpace(p.Contact)
	return p
}
