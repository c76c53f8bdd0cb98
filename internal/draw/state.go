package draw

import (
	"fmt"
	"time"

	"github.com/alienxp03/santa/internal/core"
)

// State is the phase of an interactive round.
//
//	Idle → GiverChosen → Drawing → DrawResolved → Committed → Idle
//
// A commit that completes the last giver moves to Finished instead of Idle.
// Committed is only reported through events; the engine never rests there.
type State int

const (
	StateIdle State = iota
	StateGiverChosen
	StateDrawing
	StateDrawResolved
	StateCommitted
	StateFinished
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGiverChosen:
		return "giver_chosen"
	case StateDrawing:
		return "drawing"
	case StateDrawResolved:
		return "draw_resolved"
	case StateCommitted:
		return "committed"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText lets states appear by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Policy controls how the eligible pool is built.
type Policy string

const (
	// PolicyGuarded narrows the pool on the second-to-last draw so the last
	// giver always has someone left to draw. Guarded games never dead-end.
	PolicyGuarded Policy = "guarded"

	// PolicyStrict applies only the no-self and no-repeat rules. The last
	// giver can be left with nobody but themselves; Rollback recovers.
	PolicyStrict Policy = "strict"
)

// ParsePolicy returns the policy with the given name.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(name); p {
	case PolicyGuarded, PolicyStrict:
		return p, nil
	case "":
		return PolicyGuarded, nil
	default:
		return "", fmt.Errorf("unknown draw policy: %s", name)
	}
}

// EventType identifies what happened in a round.
type EventType string

const (
	EventGiverChosen      EventType = "giver_chosen"
	EventDrawStarted      EventType = "draw_started"
	EventDrawResolved     EventType = "draw_resolved"
	EventCommitted        EventType = "committed"
	EventAbandoned        EventType = "abandoned"
	EventRolledBack       EventType = "rolled_back"
	EventReset            EventType = "reset"
	EventFinished         EventType = "finished"
	EventParticipantAdded EventType = "participant_added"
	EventNotifyFailed     EventType = "notify_failed"
	EventNoEligible       EventType = "no_eligible_receivers"
)

// Event describes a transition. Receiver is only set once a draw resolves,
// so observers watching Drawing never learn the pick early.
type Event struct {
	Type     EventType `json:"type"`
	State    State     `json:"state"`
	Giver    string    `json:"giver,omitempty"`
	Receiver string    `json:"receiver,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Snapshot is a read-only copy of the round state.
type Snapshot struct {
	State              State              `json:"state"`
	Policy             Policy             `json:"policy"`
	Roster             []core.Participant `json:"roster"`
	CurrentGiver       string             `json:"current_giver,omitempty"`
	CurrentDraw        string             `json:"current_draw,omitempty"`
	CompletedGivers    []string           `json:"completed_givers"`
	CommittedReceivers []string           `json:"committed_receivers"`
	RemainingGivers    []string           `json:"remaining_givers"`
	Assignments        core.AssignmentSet `json:"assignments"`
	Deadlocked         bool               `json:"deadlocked"`
}

// Commit is the result of confirming a draw.
type Commit struct {
	Assignment core.Assignment
	Giver      core.Participant
	Receiver   core.Participant
	Finished   bool
	// NotifyErr is set when the notifier failed. The commit stands regardless.
	NotifyErr error
}
