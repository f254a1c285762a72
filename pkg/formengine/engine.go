package formengine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrSubmitRequired is returned by New when no submit func is supplied.
var ErrSubmitRequired = errors.New("formengine: submit func is required")

// SubmitFunc performs the actual submission of validated values. It receives a
// copy of the current values and may block.
type SubmitFunc func(ctx context.Context, values Values) error

var (
	defaultFormatsOnce sync.Once
	defaultFormats     *validator.Validate
)

func sharedFormats() *validator.Validate {
	defaultFormatsOnce.Do(func() {
		defaultFormats = validator.New()
	})
	return defaultFormats
}

// Engine holds the state of one form instance.
type Engine struct {
	initial  Values
	values   Values
	errors   Errors
	touched  Touched
	rules    Rules
	onSubmit SubmitFunc

	submitting bool

	messages  Messages
	formats   *validator.Validate
	logger    *slog.Logger
	observers []Observer
}

// New constructs an engine seeded with initial values. The initial map is
// copied: it becomes the current state and the Reset target. rules may be nil,
// in which case no field is ever validated.
func New(initial Values, rules Rules, onSubmit SubmitFunc, options ...Option) (*Engine, error) {
	if onSubmit == nil {
		return nil, ErrSubmitRequired
	}
	if initial == nil {
		initial = Values{}
	}

	e := &Engine{
		initial:  initial.clone(),
		values:   initial.clone(),
		errors:   Errors{},
		touched:  Touched{},
		rules:    rules.clone(),
		onSubmit: onSubmit,
		messages: DefaultMessages(),
		logger:   slog.Default(),
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.formats == nil {
		e.formats = sharedFormats()
	}

	return e, nil
}

// ValidateField evaluates the rule for name against value and returns the
// first violation message, or "" when the value passes or name has no rule.
func (e *Engine) ValidateField(name string, value any) string {
	return e.validate(name, value)
}

// ValidateForm validates every field in the rule table against the current
// values, replaces the error map with the results and reports whether the
// form is valid.
func (e *Engine) ValidateForm() bool {
	valid := e.validateForm()
	e.notify()
	return valid
}

func (e *Engine) validateForm() bool {
	next := Errors{}
	for _, name := range e.ruleNames() {
		if msg := e.validate(name, e.values[name]); msg != "" {
			next[name] = msg
		}
	}
	e.errors = next
	return len(next) == 0
}

// HandleChange stores value for name and drops any error currently shown for
// that field without re-validating it. Names not seeded at construction are
// ignored.
func (e *Engine) HandleChange(name string, value any) {
	if _, ok := e.values[name]; !ok {
		e.logger.Warn("formengine: change for unknown field ignored", "field", name)
		return
	}
	e.values[name] = value
	if e.errors[name] != "" {
		delete(e.errors, name)
	}
	e.notify()
}

// SetFieldValue sets a value programmatically. It behaves like HandleChange.
func (e *Engine) SetFieldValue(name string, value any) {
	e.HandleChange(name, value)
}

// HandleBlur marks name as touched and validates its current value.
func (e *Engine) HandleBlur(name string) {
	e.touched[name] = true
	e.setError(name, e.validate(name, e.values[name]))
	e.notify()
}

// SetFieldError overwrites the error for name without evaluating rules. An
// empty message clears the error.
func (e *Engine) SetFieldError(name, message string) {
	e.setError(name, message)
	e.notify()
}

func (e *Engine) setError(name, message string) {
	if message == "" {
		delete(e.errors, name)
		return
	}
	e.errors[name] = message
}

// HandleSubmit touches every ruled field and validates the form. When the form
// is valid it calls the submit func with a copy of the current values and
// waits for it to return. Submit errors are logged and not returned; the
// result reports whether the submit func ran and succeeded. IsSubmitting is
// true only while the submit func runs.
func (e *Engine) HandleSubmit(ctx context.Context) bool {
	for _, name := range e.ruleNames() {
		e.touched[name] = true
	}
	if !e.validateForm() {
		e.notify()
		return false
	}

	id := uuid.NewString()
	e.submitting = true
	e.notify()
	defer func() {
		e.submitting = false
		e.notify()
	}()

	e.logger.Debug("formengine: submitting", "submission_id", id, "fields", len(e.values))
	if err := e.onSubmit(ctx, e.values.clone()); err != nil {
		e.logger.Error("formengine: submit failed", "submission_id", id, "error", err)
		return false
	}
	e.logger.Debug("formengine: submitted", "submission_id", id)
	return true
}

// Reset restores the initial values and clears errors, touched flags and the
// submitting flag.
func (e *Engine) Reset() {
	e.values = e.initial.clone()
	e.errors = Errors{}
	e.touched = Touched{}
	e.submitting = false
	e.notify()
}

// Values returns a copy of the current values.
func (e *Engine) Values() Values {
	return e.values.clone()
}

// Value returns a copy of the current value for name.
func (e *Engine) Value(name string) (any, bool) {
	v, ok := e.values[name]
	return deepCopy(v), ok
}

// InitialValues returns a copy of the construction snapshot.
func (e *Engine) InitialValues() Values {
	return e.initial.clone()
}

// Errors returns a copy of the current error map.
func (e *Engine) Errors() Errors {
	return e.errors.clone()
}

// Error returns the message for name, or "".
func (e *Engine) Error(name string) string {
	return e.errors[name]
}

// Touched returns a copy of the touched flags.
func (e *Engine) Touched() Touched {
	return e.touched.clone()
}

// IsTouched reports whether name has been touched.
func (e *Engine) IsTouched(name string) bool {
	return e.touched[name]
}

// IsSubmitting reports whether the submit func is running.
func (e *Engine) IsSubmitting() bool {
	return e.submitting
}

// IsValid reports whether no field currently carries an error message.
func (e *Engine) IsValid() bool {
	return !e.errors.HasErrors()
}

// DirtyFields lists, in name order, the fields whose value differs from the
// initial snapshot.
func (e *Engine) DirtyFields() []string {
	var out []string
	for name, value := range e.values {
		if !sameValue(value, e.initial[name]) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IsDirty reports whether any field differs from its initial value.
func (e *Engine) IsDirty() bool {
	for name, value := range e.values {
		if !sameValue(value, e.initial[name]) {
			return true
		}
	}
	return false
}

// Rule returns the rule declared for name.
func (e *Engine) Rule(name string) (Rule, bool) {
	r, ok := e.rules[name]
	return r, ok
}

// Fields returns the seeded field names in sorted order.
func (e *Engine) Fields() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the observable state.
func (e *Engine) Snapshot() State {
	return State{
		Values:       e.values.clone(),
		Errors:       e.errors.clone(),
		Touched:      e.touched.clone(),
		IsSubmitting: e.submitting,
		IsValid:      e.IsValid(),
		IsDirty:      e.IsDirty(),
	}
}

func (e *Engine) ruleNames() []string {
	names := make([]string, 0, len(e.rules))
	for name := range e.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) notify() {
	if len(e.observers) == 0 {
		return
	}
	state := e.Snapshot()
	for _, fn := range e.observers {
		fn(state)
	}
}
