// Package draw runs interactive Secret Santa rounds: one giver at a time
// draws a receiver from the people nobody has drawn yet, confirms, and the
// next giver steps up until everyone has drawn.
//
// An Engine is owned by a single game. Its methods are safe to call from
// several goroutines, but the model is one driver issuing one operation at a
// time; the lock exists so that a second draw during a spin is rejected with
// core.ErrDrawInProgress rather than racing.
package draw

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alienxp03/santa/internal/core"
	"github.com/alienxp03/santa/internal/notify"
)

// Engine is the sequential selection state machine.
type Engine struct {
	mu sync.Mutex

	roster []core.Participant
	index  map[string]int

	state        State
	currentGiver int // roster index, -1 when unset
	currentDraw  int // roster index, -1 when unset
	completed    map[string]bool
	committed    map[string]bool
	assignments  core.AssignmentSet

	// generation changes whenever a pending draw is invalidated, so a spin
	// that finishes after an abandon or reset cannot resolve.
	generation uint64

	policy        Policy
	rng           core.RNG
	spinner       Spinner
	notifier      notify.Notifier
	notifyTimeout time.Duration
	logger        *slog.Logger
	observers     []func(Event)
	restore       core.AssignmentSet
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the eligibility policy. Default: PolicyGuarded.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithRand sets the random source used to pick receivers.
func WithRand(rng core.RNG) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithSpinner sets what a draw waits on between Drawing and DrawResolved.
// Default: Instant.
func WithSpinner(s Spinner) Option {
	return func(e *Engine) { e.spinner = s }
}

// WithNotifier sets the notifier told about every commit.
func WithNotifier(n notify.Notifier, timeout time.Duration) Option {
	return func(e *Engine) {
		e.notifier = n
		e.notifyTimeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver registers a callback for every transition. Callbacks run
// after the engine lock is released, on the goroutine that caused the event.
func WithObserver(fn func(Event)) Option {
	return func(e *Engine) { e.observers = append(e.observers, fn) }
}

// WithCommitted restores pairs committed in an earlier session.
func WithCommitted(set core.AssignmentSet) Option {
	return func(e *Engine) { e.restore = set.Clone() }
}

// New creates an engine for roster.
func New(roster []core.Participant, opts ...Option) (*Engine, error) {
	if err := core.ValidateRoster(roster); err != nil {
		return nil, err
	}

	e := &Engine{
		roster:       make([]core.Participant, 0, len(roster)),
		index:        make(map[string]int, len(roster)),
		state:        StateIdle,
		currentGiver: -1,
		currentDraw:  -1,
		completed:    make(map[string]bool),
		committed:    make(map[string]bool),
		policy:       PolicyGuarded,
		spinner:      Instant,
		now:          time.Now,
	}
	for _, p := range roster {
		e.index[p.Key()] = len(e.roster)
		e.roster = append(e.roster, p)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = core.DefaultRNG()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if _, err := ParsePolicy(string(e.policy)); err != nil {
		return nil, err
	}

	if len(e.restore) > 0 {
		if err := e.restore.ValidatePartial(e.roster); err != nil {
			return nil, fmt.Errorf("failed to restore assignments: %w", err)
		}
		for _, a := range e.restore {
			giver := e.roster[e.index[core.NameKey(a.Giver)]]
			receiver := e.roster[e.index[core.NameKey(a.Receiver)]]
			e.assignments = append(e.assignments, core.Assignment{Giver: giver.Name, Receiver: receiver.Name})
			e.completed[giver.Key()] = true
			e.committed[receiver.Key()] = true
		}
		if len(e.completed) == len(e.roster) {
			e.state = StateFinished
		}
		e.restore = nil
	}

	return e, nil
}

// CanAdd reports why Add would reject p, without changing the roster.
func (e *Engine) CanAdd(p core.Participant) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkAdd(p)
}

func (e *Engine) checkAdd(p core.Participant) error {
	if err := e.expect(StateIdle); err != nil {
		return err
	}
	if p.Key() == "" {
		return core.ErrInvalidParticipant
	}
	if _, exists := e.index[p.Key()]; exists {
		return fmt.Errorf("%w: %q", core.ErrDuplicateIdentity, p.Name)
	}
	return nil
}

// Add appends a participant to the roster between rounds.
func (e *Engine) Add(p core.Participant) error {
	e.mu.Lock()
	if err := e.checkAdd(p); err != nil {
		e.mu.Unlock()
		return err
	}
	key := p.Key()
	e.index[key] = len(e.roster)
	e.roster = append(e.roster, p)
	ev := e.event(EventParticipantAdded, p.Name, "")
	e.mu.Unlock()

	e.emit(ev)
	return nil
}

// ChooseGiver designates the participant who draws next.
func (e *Engine) ChooseGiver(name string) error {
	e.mu.Lock()
	if err := e.expect(StateIdle); err != nil {
		e.mu.Unlock()
		return err
	}
	if len(e.roster) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: the roster is empty", core.ErrInvalidGiver)
	}
	idx, ok := e.index[core.NameKey(name)]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q is not in the roster", core.ErrInvalidGiver, name)
	}
	giver := e.roster[idx]
	if e.completed[giver.Key()] {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s has already drawn", core.ErrInvalidGiver, giver.Name)
	}

	e.currentGiver = idx
	e.state = StateGiverChosen
	ev := e.event(EventGiverChosen, giver.Name, "")
	e.mu.Unlock()

	e.logger.Debug("Giver chosen", "giver", giver.Name)
	e.emit(ev)
	return nil
}

// Draw picks a receiver for the current giver, waits for the spinner, and
// returns the tentative receiver. If ctx is cancelled during the spin the
// draw is abandoned and the error wraps core.ErrDrawCancelled.
func (e *Engine) Draw(ctx context.Context) (core.Participant, error) {
	token, err := e.begin()
	if err != nil {
		return core.Participant{}, err
	}

	if err := e.spinner.Spin(ctx); err != nil {
		e.cancel(token)
		return core.Participant{}, fmt.Errorf("%w: %w", core.ErrDrawCancelled, err)
	}

	return e.resolve(token)
}

// BeginDraw starts a draw without waiting. The pick is made now but stays
// hidden until ResolveDraw.
func (e *Engine) BeginDraw() error {
	_, err := e.begin()
	return err
}

// ResolveDraw completes a draw started with BeginDraw and reveals the
// tentative receiver.
func (e *Engine) ResolveDraw() (core.Participant, error) {
	e.mu.Lock()
	if e.state != StateDrawing {
		err := e.expect(StateDrawing)
		e.mu.Unlock()
		return core.Participant{}, err
	}
	token := e.generation
	e.mu.Unlock()
	return e.resolve(token)
}

func (e *Engine) begin() (uint64, error) {
	e.mu.Lock()
	if err := e.expect(StateGiverChosen); err != nil {
		e.mu.Unlock()
		return 0, err
	}

	giver := e.roster[e.currentGiver]
	pool := e.eligible(e.currentGiver)
	if len(pool) == 0 {
		ev := e.event(EventNoEligible, giver.Name, "")
		e.mu.Unlock()

		e.logger.Warn("No eligible receivers", "giver", giver.Name)
		e.emit(ev)
		return 0, fmt.Errorf("%w: %s has nobody left to draw", core.ErrNoEligibleReceivers, giver.Name)
	}

	e.currentDraw = pool[e.rng.Intn(len(pool))]
	e.state = StateDrawing
	e.generation++
	token := e.generation
	ev := e.event(EventDrawStarted, giver.Name, "")
	e.mu.Unlock()

	e.logger.Debug("Draw started", "giver", giver.Name, "candidates", len(pool))
	e.emit(ev)
	return token, nil
}

func (e *Engine) resolve(token uint64) (core.Participant, error) {
	e.mu.Lock()
	if e.state != StateDrawing || e.generation != token {
		e.mu.Unlock()
		return core.Participant{}, core.ErrDrawCancelled
	}

	giver := e.roster[e.currentGiver]
	receiver := e.roster[e.currentDraw]
	e.state = StateDrawResolved
	ev := e.event(EventDrawResolved, giver.Name, receiver.Name)
	e.mu.Unlock()

	e.emit(ev)
	return receiver, nil
}

func (e *Engine) cancel(token uint64) {
	e.mu.Lock()
	if e.state != StateDrawing || e.generation != token {
		e.mu.Unlock()
		return
	}
	ev := e.abandon()
	e.mu.Unlock()

	e.emit(ev)
}

// Confirm commits the resolved draw and notifies the giver. A notifier
// failure is logged and returned in Commit.NotifyErr; the commit stands.
func (e *Engine) Confirm(ctx context.Context) (Commit, error) {
	e.mu.Lock()
	if err := e.expect(StateDrawResolved); err != nil {
		e.mu.Unlock()
		return Commit{}, err
	}

	giver := e.roster[e.currentGiver]
	receiver := e.roster[e.currentDraw]
	a := core.Assignment{Giver: giver.Name, Receiver: receiver.Name}

	e.assignments = append(e.assignments, a)
	e.completed[giver.Key()] = true
	e.committed[receiver.Key()] = true
	e.currentGiver, e.currentDraw = -1, -1
	e.generation++

	finished := len(e.completed) == len(e.roster)
	e.state = StateIdle
	if finished {
		e.state = StateFinished
	}
	events := []Event{e.event(EventCommitted, giver.Name, receiver.Name)}
	if finished {
		events = append(events, e.event(EventFinished, "", ""))
	}
	e.mu.Unlock()

	e.logger.Info("Assignment committed", "giver", giver.Name, "finished", finished)
	e.emit(events...)

	commit := Commit{Assignment: a, Giver: giver, Receiver: receiver, Finished: finished}
	if e.notifier != nil {
		nctx := ctx
		if e.notifyTimeout > 0 {
			var cancel context.CancelFunc
			nctx, cancel = context.WithTimeout(ctx, e.notifyTimeout)
			defer cancel()
		}
		if err := e.notifier.Notify(nctx, giver, receiver); err != nil {
			e.logger.Warn("Failed to notify giver", "giver", giver.Name, "notifier", e.notifier.Name(), "error", err)
			commit.NotifyErr = err

			ev := e.event(EventNotifyFailed, giver.Name, "")
			ev.Error = err.Error()
			e.emit(ev)
		}
	}
	return commit, nil
}

// Abandon discards the chosen giver and any pending or resolved draw.
func (e *Engine) Abandon() error {
	e.mu.Lock()
	switch e.state {
	case StateGiverChosen, StateDrawing, StateDrawResolved:
	case StateFinished:
		e.mu.Unlock()
		return core.ErrGameFinished
	default:
		e.mu.Unlock()
		return fmt.Errorf("%w: nothing to abandon", core.ErrInvalidState)
	}
	ev := e.abandon()
	e.mu.Unlock()

	e.emit(ev)
	return nil
}

// abandon must be called with e.mu held.
func (e *Engine) abandon() Event {
	giver := ""
	if e.currentGiver >= 0 {
		giver = e.roster[e.currentGiver].Name
	}
	e.currentGiver, e.currentDraw = -1, -1
	e.state = StateIdle
	e.generation++
	return e.event(EventAbandoned, giver, "")
}

// Reset clears every commit and returns to Idle. The roster is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.currentGiver, e.currentDraw = -1, -1
	e.completed = make(map[string]bool)
	e.committed = make(map[string]bool)
	e.assignments = nil
	e.state = StateIdle
	e.generation++
	ev := e.event(EventReset, "", "")
	e.mu.Unlock()

	e.logger.Info("Round state reset")
	e.emit(ev)
}

// Rollback undoes the most recent commit so that giver can draw again.
// It is the way out of a strict-policy dead end.
func (e *Engine) Rollback() (core.Assignment, error) {
	e.mu.Lock()
	switch e.state {
	case StateIdle, StateFinished:
	case StateDrawing:
		e.mu.Unlock()
		return core.Assignment{}, core.ErrDrawInProgress
	default:
		e.mu.Unlock()
		return core.Assignment{}, fmt.Errorf("%w: abandon the current draw before rolling back", core.ErrInvalidState)
	}
	if len(e.assignments) == 0 {
		e.mu.Unlock()
		return core.Assignment{}, fmt.Errorf("%w: nothing to roll back", core.ErrInvalidState)
	}

	last := e.assignments[len(e.assignments)-1]
	e.assignments = e.assignments[:len(e.assignments)-1]
	delete(e.completed, core.NameKey(last.Giver))
	delete(e.committed, core.NameKey(last.Receiver))
	e.state = StateIdle
	e.generation++
	ev := e.event(EventRolledBack, last.Giver, last.Receiver)
	e.mu.Unlock()

	e.logger.Info("Assignment rolled back", "giver", last.Giver)
	e.emit(ev)
	return last, nil
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Finished reports whether every participant has drawn.
func (e *Engine) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateFinished
}

// Deadlocked reports whether the remaining giver can only draw themselves.
// Only reachable under PolicyStrict.
func (e *Engine) Deadlocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deadlocked()
}

// Eligible returns who the current giver could draw, or nil when no giver
// is chosen.
func (e *Engine) Eligible() []core.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.currentGiver < 0 {
		return nil
	}
	pool := e.eligible(e.currentGiver)
	out := make([]core.Participant, len(pool))
	for i, idx := range pool {
		out[i] = e.roster[idx]
	}
	return out
}

// Assignments returns the pairs committed so far, in commit order.
func (e *Engine) Assignments() core.AssignmentSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assignments.Clone()
}

// Roster returns a copy of the roster.
func (e *Engine) Roster() []core.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Participant(nil), e.roster...)
}

// Snapshot returns a copy of the full round state. The pending receiver is
// only included once the draw has resolved.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		State:              e.state,
		Policy:             e.policy,
		Roster:             append([]core.Participant(nil), e.roster...),
		CompletedGivers:    []string{},
		CommittedReceivers: []string{},
		RemainingGivers:    []string{},
		Assignments:        e.assignments.Clone(),
		Deadlocked:         e.deadlocked(),
	}
	if s.Assignments == nil {
		s.Assignments = core.AssignmentSet{}
	}
	if e.currentGiver >= 0 {
		s.CurrentGiver = e.roster[e.currentGiver].Name
	}
	if e.state == StateDrawResolved {
		s.CurrentDraw = e.roster[e.currentDraw].Name
	}
	for _, p := range e.roster {
		if e.completed[p.Key()] {
			s.CompletedGivers = append(s.CompletedGivers, p.Name)
		} else {
			s.RemainingGivers = append(s.RemainingGivers, p.Name)
		}
		if e.committed[p.Key()] {
			s.CommittedReceivers = append(s.CommittedReceivers, p.Name)
		}
	}
	return s
}

// eligible must be called with e.mu held.
func (e *Engine) eligible(giver int) []int {
	var pool []int
	for i, p := range e.roster {
		if i != giver && !e.committed[p.Key()] {
			pool = append(pool, i)
		}
	}

	if e.policy != PolicyGuarded {
		return pool
	}

	// With two givers left, if the other one has not been drawn yet they
	// must be drawn now: otherwise they end up as the last giver with only
	// themselves remaining. Any larger remainder can always be completed.
	var remaining []int
	for i, p := range e.roster {
		if !e.completed[p.Key()] {
			remaining = append(remaining, i)
		}
	}
	if len(remaining) == 2 {
		other := remaining[0]
		if other == giver {
			other = remaining[1]
		}
		if !e.committed[e.roster[other].Key()] {
			return []int{other}
		}
	}
	return pool
}

// deadlocked must be called with e.mu held.
func (e *Engine) deadlocked() bool {
	if e.state == StateFinished {
		return false
	}
	var remaining []string
	for _, p := range e.roster {
		if !e.completed[p.Key()] {
			remaining = append(remaining, p.Key())
		}
	}
	// As many receivers remain as givers; the only unmatchable remainder is
	// a single giver who is also the single receiver.
	return len(remaining) == 1 && !e.committed[remaining[0]]
}

// expect must be called with e.mu held.
func (e *Engine) expect(want State) error {
	if e.state == want {
		return nil
	}
	switch e.state {
	case StateDrawing:
		return core.ErrDrawInProgress
	case StateFinished:
		return core.ErrGameFinished
	default:
		return fmt.Errorf("%w: state is %s, want %s", core.ErrInvalidState, e.state, want)
	}
}

func (e *Engine) event(t EventType, giver, receiver string) Event {
	return Event{Type: t, State: e.state, Giver: giver, Receiver: receiver, At: e.now()}
}

func (e *Engine) emit(events ...Event) {
	for _, ev := range events {
		for _, fn := range e.observers {
			fn(ev)
		}
	}
}
