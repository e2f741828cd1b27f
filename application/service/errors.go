package service

import "errors"

var (
	// ErrSessionNotFound indicates no open session has the requested ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidSessionID indicates a session ID that is not a UUID.
	ErrInvalidSessionID = errors.New("invalid session id")
	// ErrEventsClaimed indicates another consumer is already reading a session's events.
	ErrEventsClaimed = errors.New("session events already claimed")
	// ErrPlantNotFound indicates no catalog entry has the requested ID.
	ErrPlantNotFound = errors.New("plant not found")
	// ErrSessionsClosed indicates the registry has been shut down.
	ErrSessionsClosed = errors.New("sessions closed")
)
