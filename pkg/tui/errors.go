package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrEngineRequired is returned by NewSession when no engine is supplied.
	ErrEngineRequired = errors.New("tui: engine is required")
	// ErrUnknownField is returned when the definition names a field the engine
	// was not seeded with.
	ErrUnknownField = errors.New("tui: field not managed by engine")
	// ErrTooManyAttempts is returned when a field stays invalid after the
	// configured number of prompts.
	ErrTooManyAttempts = errors.New("tui: too many invalid attempts")
	// ErrSubmitFailed is returned when the submit func fails without reporting
	// any field error to re-prompt.
	ErrSubmitFailed = errors.New("tui: submit failed")
)
