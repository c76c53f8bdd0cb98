package notify

import "fmt"

// Error represents a failed delivery.
type Error struct {
	// Notifier is the name of the notifier that failed.
	Notifier string

	// Giver is the participant who should have been told.
	Giver string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s notifier failed for %s: %v", e.Notifier, e.Giver, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
