package formengine

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
)

// Option configures an Engine at construction.
type Option func(*Engine)

// Observer is notified with a fresh snapshot after every state mutation.
type Observer func(State)

// WithLogger sets the logger used for submission diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers a change observer. Multiple observers run in
// registration order.
func WithObserver(fn Observer) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// WithMessages overrides the built-in violation messages. Empty templates fall
// back to DefaultMessages.
func WithMessages(messages Messages) Option {
	return func(e *Engine) {
		e.messages = messages.withDefaults()
	}
}

// WithFormatValidator supplies the validator used for Rule.Format checks, so
// callers can register their own tags.
func WithFormatValidator(v *validator.Validate) Option {
	return func(e *Engine) {
		if v != nil {
			e.formats = v
		}
	}
}
