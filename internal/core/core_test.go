package core

import (
	"errors"
	"testing"
)

func people(names ...string) []Participant {
	roster := make([]Participant, len(names))
	for i, n := range names {
		roster[i] = Participant{Name: n}
	}
	return roster
}

func TestValidateRoster(t *testing.T) {
	tests := []struct {
		name    string
		roster  []Participant
		wantErr error
	}{
		{"Empty", nil, nil},
		{"Unique", people("Alex", "Sam", "Jo"), nil},
		{"Duplicate", people("Alex", "Sam", "Alex"), ErrDuplicateIdentity},
		{"DuplicateDifferentCase", people("Alex", " alex "), ErrDuplicateIdentity},
		{"BlankName", people("Alex", "  "), ErrInvalidParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoster(tt.roster)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFindParticipant(t *testing.T) {
	roster := []Participant{
		{Name: "Alex", Contact: "alex@example.com"},
		{Name: "Sam"},
	}

	p, ok := FindParticipant(roster, "ALEX")
	if !ok {
		t.Fatal("expected to find Alex")
	}
	if p.Contact != "alex@example.com" {
		t.Errorf("wrong participant: %+v", p)
	}

	if _, ok := FindParticipant(roster, "Jo"); ok {
		t.Error("expected Jo to be missing")
	}
}

func TestAssignmentSetValidate(t *testing.T) {
	roster := people("A", "B", "C")

	tests := []struct {
		name     string
		set      AssignmentSet
		complete bool
		wantErr  bool
	}{
		{"Derangement", AssignmentSet{{"A", "B"}, {"B", "C"}, {"C", "A"}}, true, false},
		{"SelfMatch", AssignmentSet{{"A", "A"}, {"B", "C"}, {"C", "B"}}, true, true},
		{"RepeatedReceiver", AssignmentSet{{"A", "B"}, {"C", "B"}}, false, true},
		{"RepeatedGiver", AssignmentSet{{"A", "B"}, {"A", "C"}}, false, true},
		{"UnknownName", AssignmentSet{{"A", "Z"}}, false, true},
		{"PartialIsFine", AssignmentSet{{"A", "C"}}, false, false},
		{"PartialIsNotComplete", AssignmentSet{{"A", "C"}}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.complete {
				err = tt.set.Validate(roster)
			} else {
				err = tt.set.ValidatePartial(roster)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidAssignment) {
				t.Errorf("expected ErrInvalidAssignment, got %v", err)
			}
		})
	}
}

func TestAssignmentSetLookups(t *testing.T) {
	set := AssignmentSet{{"A", "B"}, {"B", "A"}}

	if r, ok := set.ReceiverOf("a"); !ok || r != "B" {
		t.Errorf("ReceiverOf(a) = %q, %v", r, ok)
	}
	if g, ok := set.GiverOf("A"); !ok || g != "B" {
		t.Errorf("GiverOf(A) = %q, %v", g, ok)
	}
	if _, ok := set.ReceiverOf("C"); ok {
		t.Error("expected no receiver for C")
	}

	clone := set.Clone()
	clone[0].Receiver = "X"
	if set[0].Receiver != "B" {
		t.Error("Clone shares backing array")
	}
}

func TestNewGameID(t *testing.T) {
	a, b := NewGameID(), NewGameID()
	if a == "" || a == b {
		t.Errorf("expected distinct ids, got %q and %q", a, b)
	}
	if got := ShortID(a); len(got) != 8 {
		t.Errorf("ShortID length = %d", len(got))
	}
}
