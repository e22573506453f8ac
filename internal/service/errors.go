package service

import "errors"

// Sentinel errors shared across services. Handlers map these onto response
// error codes; anything else is an internal error.
var (
	// ErrNotFound covers both "absent" and "not owned" so a student cannot
	// probe for the existence of someone else's exam.
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrFeatureDisabled    = errors.New("feature disabled")
	ErrInsufficientPool   = errors.New("insufficient eligible question pool")
	ErrExamExpired        = errors.New("exam time box exceeded")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrExamOngoing        = errors.New("an exam is already in progress")
	ErrEmptyBank          = errors.New("no questions available")
	ErrMisconfigured      = errors.New("practice threshold is below the exam question count")
	ErrRegistrationClosed = errors.New("registration disabled")
	ErrNameRequired       = errors.New("name required for first login")
	ErrIPMismatch         = errors.New("ip binding mismatch")
)
