package core

import "errors"

var (
	ErrInsufficientParticipants = errors.New("at least two participants are required")
	ErrDuplicateIdentity        = errors.New("duplicate participant name")
	ErrInvalidParticipant       = errors.New("participant name is required")
	ErrInvalidGiver             = errors.New("invalid giver")
	ErrNoEligibleReceivers      = errors.New("no eligible receivers")
	ErrDrawInProgress           = errors.New("draw already in progress")
	ErrDrawCancelled            = errors.New("draw was cancelled")
	ErrInvalidState             = errors.New("operation not valid in current state")
	ErrGameFinished             = errors.New("game is finished")
	ErrGameNotFound             = errors.New("game not found")
	ErrInvalidAssignment        = errors.New("invalid assignment set")
)
