package core

import "fmt"

// AssignmentSet maps givers to receivers. It is kept as an ordered list so it
// serializes as a sequence of {giver, receiver} records.
type AssignmentSet []Assignment

// ReceiverOf returns the receiver assigned to giver.
func (s AssignmentSet) ReceiverOf(giver string) (string, bool) {
	for _, a := range s {
		if SameName(a.Giver, giver) {
			return a.Receiver, true
		}
	}
	return "", false
}

// GiverOf returns the giver that gifts receiver.
func (s AssignmentSet) GiverOf(receiver string) (string, bool) {
	for _, a := range s {
		if SameName(a.Receiver, receiver) {
			return a.Giver, true
		}
	}
	return "", false
}

// Clone returns a copy that shares no backing array with s.
func (s AssignmentSet) Clone() AssignmentSet {
	if s == nil {
		return nil
	}
	out := make(AssignmentSet, len(s))
	copy(out, s)
	return out
}

// ValidatePartial checks the invariants that hold at every point of a game:
// no self match, no giver or receiver repeated, and every name in roster.
func (s AssignmentSet) ValidatePartial(roster []Participant) error {
	known := make(map[string]bool, len(roster))
	for _, p := range roster {
		known[p.Key()] = true
	}

	givers := make(map[string]bool, len(s))
	receivers := make(map[string]bool, len(s))
	for _, a := range s {
		g, r := NameKey(a.Giver), NameKey(a.Receiver)
		if g == r {
			return fmt.Errorf("%w: %s is assigned to themselves", ErrInvalidAssignment, a.Giver)
		}
		if !known[g] {
			return fmt.Errorf("%w: unknown giver %q", ErrInvalidAssignment, a.Giver)
		}
		if !known[r] {
			return fmt.Errorf("%w: unknown receiver %q", ErrInvalidAssignment, a.Receiver)
		}
		if givers[g] {
			return fmt.Errorf("%w: %s gives more than once", ErrInvalidAssignment, a.Giver)
		}
		if receivers[r] {
			return fmt.Errorf("%w: %s receives more than once", ErrInvalidAssignment, a.Receiver)
		}
		givers[g] = true
		receivers[r] = true
	}
	return nil
}

// Validate checks that s is a complete derangement over roster: every
// participant gives exactly once and receives exactly once, never to
// themselves.
func (s AssignmentSet) Validate(roster []Participant) error {
	if err := s.ValidatePartial(roster); err != nil {
		return err
	}
	if len(s) != len(roster) {
		return fmt.Errorf("%w: %d of %d participants assigned", ErrInvalidAssignment, len(s), len(roster))
	}
	return nil
}
