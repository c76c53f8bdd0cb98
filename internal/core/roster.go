package core

import "fmt"

// ValidateRoster checks that every participant has a name and that no two
// participants share one. It does not enforce a minimum size.
func ValidateRoster(roster []Participant) error {
	seen := make(map[string]int, len(roster))
	for i, p := range roster {
		key := p.Key()
		if key == "" {
			return fmt.Errorf("participant %d: %w", i+1, ErrInvalidParticipant)
		}
		if first, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q (entries %d and %d)", ErrDuplicateIdentity, p.Name, first+1, i+1)
		}
		seen[key] = i
	}
	return nil
}

// FindParticipant returns the roster entry with the given name.
func FindParticipant(roster []Participant, name string) (Participant, bool) {
	key := NameKey(name)
	for _, p := range roster {
		if p.Key() == key {
			return p, true
		}
	}
	return Participant{}, false
}

// Names returns the participant names in roster order.
func Names(roster []Participant) []string {
	names := make([]string, len(roster))
	for i, p := range roster {
		names[i] = p.Name
	}
	return names
}
