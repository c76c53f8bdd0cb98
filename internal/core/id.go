package core

import (
	"math/rand"

	"github.com/google/uuid"
)

// NewGameID generates a new game identifier.
func NewGameID() string {
	return uuid.New().String()
}

// ShortID returns the first eight characters of an identifier for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// DefaultRNG returns a goroutine-safe RNG backed by math/rand's global source.
func DefaultRNG() RNG {
	return globalRand{}
}
