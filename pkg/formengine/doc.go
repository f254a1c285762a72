// Package formengine owns the state of a single form: field values, per-field
// validation errors, touched flags and the submission lifecycle.
//
// An Engine is seeded with initial values, an optional rule table and a submit
// func. UI collaborators feed it events through HandleChange, HandleBlur and
// HandleSubmit and read back Values, Errors, Touched and IsSubmitting (or a
// State snapshot) to render. Validation failures are always data, never Go
// errors. Submission failures are logged and swallowed; callers that want to
// surface them wrap their submit func (see pkg/submit).
//
// An Engine has a single owner and performs no locking. It is not safe for
// concurrent use.
package formengine
