package submit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/formengine"
)

// FieldErrors reports per-field rejections from a submit transport. Returning
// it (or an error wrapping it) from a submit func wrapped by a Reporter puts
// the messages on the engine.
type FieldErrors struct {
	Fields map[string]string
	Form   []string
}

func (e *FieldErrors) Error() string {
	if e == nil {
		return "submit: field errors"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names)+len(e.Form))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	parts = append(parts, e.Form...)
	return "submit: rejected: " + strings.Join(parts, "; ")
}

// ErrorSetter is the engine surface the Reporter writes to.
type ErrorSetter interface {
	SetFieldError(name, message string)
}

// Reporter copies FieldErrors returned by a submit func onto an engine. The
// engine must be bound before the first submission.
type Reporter struct {
	target ErrorSetter
	// FormField receives form-level messages; empty drops them.
	FormField string
}

// NewReporter returns a Reporter that writes form-level messages under formField.
func NewReporter(formField string) *Reporter {
	return &Reporter{FormField: formField}
}

// Bind sets the engine that receives field errors.
func (r *Reporter) Bind(target ErrorSetter) {
	r.target = target
}

// Middleware returns the reporting middleware. The original error is still
// returned so the engine logs the failed submission.
func (r *Reporter) Middleware() Middleware {
	return func(next formengine.SubmitFunc) formengine.SubmitFunc {
		return func(ctx context.Context, values formengine.Values) error {
			err := next(ctx, values)
			var fieldErrs *FieldErrors
			if err != nil && r.target != nil && errors.As(err, &fieldErrs) {
				r.apply(fieldErrs)
			}
			return err
		}
	}
}

func (r *Reporter) apply(fieldErrs *FieldErrors) {
	for name, message := range fieldErrs.Fields {
		r.target.SetFieldError(name, message)
	}
	if r.FormField != "" && len(fieldErrs.Form) > 0 {
		r.target.SetFieldError(r.FormField, strings.Join(fieldErrs.Form, " "))
	}
}

// MapErrorPayload normalises a server error payload keyed by JSON pointers,
// dotted paths or bare names onto the given field names. The first message per
// field wins; unknown paths become form-level messages.
func MapErrorPayload(fields []string, payload map[string][]string) *FieldErrors {
	known := make(map[string]struct{}, len(fields))
	for _, name := range fields {
		known[name] = struct{}{}
	}

	out := &FieldErrors{Fields: make(map[string]string)}
	paths := make([]string, 0, len(payload))
	for path := range payload {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		messages := normalizeMessages(payload[path])
		if len(messages) == 0 {
			continue
		}
		name, ok := fieldFromPath(path, known)
		if !ok {
			out.Form = append(out.Form, messages...)
			continue
		}
		if _, exists := out.Fields[name]; !exists {
			out.Fields[name] = messages[0]
		}
	}
	out.Form = normalizeMessages(out.Form)
	return out
}

func fieldFromPath(path string, known map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(path)
	trimmed = strings.TrimPrefix(trimmed, "$.")
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.Trim(trimmed, "/.")
	if trimmed == "" {
		return "", false
	}
	if _, ok := known[trimmed]; ok {
		return trimmed, true
	}

	segments := strings.FieldsFunc(trimmed, func(r rune) bool { return r == '/' || r == '.' })
	for _, segment := range segments {
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if idx := strings.Index(segment, "["); idx > 0 {
			segment = segment[:idx]
		}
		if _, ok := known[segment]; ok {
			return segment, true
		}
	}
	return "", false
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
