package models

import "errors"

// Domain errors. Handlers map these to HTTP status codes with errors.Is;
// services wrap them with context via fmt.Errorf("...: %w", err).
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyPaired is returned when a user who already belongs to an
	// active couple attempts to pair again. Retrying cannot succeed.
	ErrAlreadyPaired = errors.New("user is already paired")

	// ErrSelfPair is returned when a user attempts to pair with themselves.
	ErrSelfPair = errors.New("cannot pair with yourself")

	// ErrNotCoupleMember is returned when a user acts on a couple or
	// session they do not belong to.
	ErrNotCoupleMember = errors.New("user is not a member of this couple")

	// ErrCodeNotFound is returned when redeeming an unknown pairing code.
	ErrCodeNotFound = errors.New("pairing code not found")

	// ErrCodeExpired is returned when redeeming a pairing code past its TTL.
	ErrCodeExpired = errors.New("pairing code expired")

	// ErrCodeAlreadyUsed is returned when redeeming a pairing code that
	// was already consumed. Codes are strictly single-use.
	ErrCodeAlreadyUsed = errors.New("pairing code already used")

	// ErrSessionClosed is returned on submissions to a terminal session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrAlreadySubmitted is returned when a user submits answers to a
	// session twice. Answer sets are write-once per user.
	ErrAlreadySubmitted = errors.New("answers already submitted")

	// ErrInsufficientPoints is returned when a debit would take the
	// balance below the protected floor.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrInvalidActivity is returned for an unknown activity type.
	ErrInvalidActivity = errors.New("invalid activity type")
)
