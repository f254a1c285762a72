package formengine_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/formengine"
)

type submitRecorder struct {
	calls  []formengine.Values
	during []bool
	err    error
	engine *formengine.Engine
}

func (r *submitRecorder) submit(_ context.Context, values formengine.Values) error {
	r.calls = append(r.calls, values)
	if r.engine != nil {
		r.during = append(r.during, r.engine.IsSubmitting())
	}
	return r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loginForm(t *testing.T, rec *submitRecorder, opts ...formengine.Option) *formengine.Engine {
	t.Helper()
	initial := formengine.Values{"email": "", "password": ""}
	rules := formengine.Rules{
		"email":    {Required: true, Pattern: regexp.MustCompile(`.+@.+`)},
		"password": {Required: true, MinLength: 8},
	}
	opts = append([]formengine.Option{formengine.WithLogger(quietLogger())}, opts...)
	e, err := formengine.New(initial, rules, rec.submit, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	rec.engine = e
	return e
}

func TestNew_RequiresSubmit(t *testing.T) {
	_, err := formengine.New(formengine.Values{}, nil, nil)
	if !errors.Is(err, formengine.ErrSubmitRequired) {
		t.Fatalf("expected ErrSubmitRequired, got %v", err)
	}
}

func TestHandleSubmit_BlankRequiredBlocksSubmission(t *testing.T) {
	rec := &submitRecorder{}
	e := loginForm(t, rec)

	if e.HandleSubmit(context.Background()) {
		t.Fatalf("expected submit to be blocked")
	}

	wantErrors := formengine.Errors{"email": "email is required", "password": "password is required"}
	if diff := cmp.Diff(wantErrors, e.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	wantTouched := formengine.Touched{"email": true, "password": true}
	if diff := cmp.Diff(wantTouched, e.Touched()); diff != "" {
		t.Fatalf("touched mismatch (-want +got):\n%s", diff)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("submit should not be called, got %d calls", len(rec.calls))
	}
	if e.IsSubmitting() {
		t.Fatalf("isSubmitting should stay false")
	}
	if e.IsValid() {
		t.Fatalf("form should be invalid")
	}
}

func TestHandleSubmit_ShortPassword(t *testing.T) {
	rec := &submitRecorder{}
	e := loginForm(t, rec)
	e.HandleChange("email", "a@b.com")
	e.HandleChange("password", "short")

	if e.HandleSubmit(context.Background()) {
		t.Fatalf("expected submit to be blocked")
	}
	if got := e.Error("password"); !strings.Contains(got, "at least 8") {
		t.Fatalf("expected min length violation, got %q", got)
	}
	if got := e.Error("email"); got != "" {
		t.Fatalf("expected no email error, got %q", got)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("submit should not be called")
	}
}

func TestHandleSubmit_ValidFormSubmitsOnce(t *testing.T) {
	rec := &submitRecorder{}
	e := loginForm(t, rec)
	e.HandleChange("email", "a@b.com")
	e.HandleChange("password", "longenough")

	if !e.HandleSubmit(context.Background()) {
		t.Fatalf("expected successful submit")
	}

	want := []formengine.Values{{"email": "a@b.com", "password": "longenough"}}
	if diff := cmp.Diff(want, rec.calls); diff != "" {
		t.Fatalf("submit calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true}, rec.during); diff != "" {
		t.Fatalf("isSubmitting during submit mismatch (-want +got):\n%s", diff)
	}
	if e.IsSubmitting() {
		t.Fatalf("isSubmitting should be cleared after submit")
	}
}

func TestHandleSubmit_FailureIsSwallowedAndLogged(t *testing.T) {
	var logs bytes.Buffer
	rec := &submitRecorder{err: errors.New("network down")}
	e := loginForm(t, rec, formengine.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	e.HandleChange("email", "a@b.com")
	e.HandleChange("password", "longenough")

	if e.HandleSubmit(context.Background()) {
		t.Fatalf("expected failed submit to report false")
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected one submit call, got %d", len(rec.calls))
	}
	if e.IsSubmitting() {
		t.Fatalf("isSubmitting should be cleared after a failed submit")
	}
	if len(e.Errors()) != 0 {
		t.Fatalf("submit failures must not populate field errors: %v", e.Errors())
	}
	if !strings.Contains(logs.String(), "network down") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
}

func TestHandleSubmit_PanicStillClearsSubmitting(t *testing.T) {
	e, err := formengine.New(formengine.Values{"q": "x"}, nil, func(context.Context, formengine.Values) error {
		panic("boom")
	}, formengine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	func() {
		defer func() { _ = recover() }()
		e.HandleSubmit(context.Background())
	}()
	if e.IsSubmitting() {
		t.Fatalf("isSubmitting should be cleared when submit panics")
	}
}

func TestHandleSubmit_UnruledFieldsNeverTouched(t *testing.T) {
	rec := &submitRecorder{}
	e, err := formengine.New(formengine.Values{"name": "x", "notes": ""},
		formengine.Rules{"name": {Required: true}}, rec.submit, formengine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if !e.HandleSubmit(context.Background()) {
		t.Fatalf("expected submit to succeed")
	}
	if e.IsTouched("notes") {
		t.Fatalf("unruled field must not be touched by submit")
	}
	if !e.IsTouched("name") {
		t.Fatalf("ruled field should be touched by submit")
	}
}

func TestHandleChange_OptimisticallyClearsError(t *testing.T) {
	e := loginForm(t, &submitRecorder{})
	e.HandleBlur("password")
	if e.Error("password") == "" {
		t.Fatalf("expected blur to surface a required error")
	}

	e.HandleChange("password", "x")
	if got := e.Error("password"); got != "" {
		t.Fatalf("expected error cleared on change, got %q", got)
	}
	if e.ValidateField("password", "x") == "" {
		t.Fatalf("value is still invalid; only the displayed error is cleared")
	}

	e.HandleBlur("password")
	if got := e.Error("password"); !strings.Contains(got, "at least 8") {
		t.Fatalf("expected blur to re-validate, got %q", got)
	}
}

func TestHandleChange_UnknownFieldIgnored(t *testing.T) {
	e := loginForm(t, &submitRecorder{})
	e.HandleChange("nickname", "ada")
	if _, ok := e.Value("nickname"); ok {
		t.Fatalf("unknown field must not be added")
	}
	if diff := cmp.Diff([]string{"email", "password"}, e.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleBlur_ReplacesError(t *testing.T) {
	e := loginForm(t, &submitRecorder{})
	e.HandleBlur("email")
	if got := e.Error("email"); got != "email is required" {
		t.Fatalf("unexpected error %q", got)
	}
	e.SetFieldValue("email", "a@b.com")
	e.SetFieldError("email", "stale")
	e.HandleBlur("email")
	if got := e.Error("email"); got != "" {
		t.Fatalf("expected blur to clear the error, got %q", got)
	}
	if !e.IsTouched("email") {
		t.Fatalf("expected email to be touched")
	}
}

func TestValidateForm_ReplacesErrors(t *testing.T) {
	e := loginForm(t, &submitRecorder{})
	e.SetFieldError("server", "duplicate account")
	e.HandleChange("email", "a@b.com")

	if e.ValidateForm() {
		t.Fatalf("expected invalid form")
	}
	want := formengine.Errors{"password": "password is required"}
	if diff := cmp.Diff(want, e.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	e.HandleChange("password", "longenough")
	if !e.ValidateForm() {
		t.Fatalf("expected valid form, errors: %v", e.Errors())
	}
	if !e.IsValid() {
		t.Fatalf("IsValid should follow ValidateForm")
	}
}

func TestSetFieldError(t *testing.T) {
	e := loginForm(t, &submitRecorder{})
	e.SetFieldError("email", "already registered")
	if e.IsValid() {
		t.Fatalf("expected invalid after SetFieldError")
	}
	e.SetFieldError("email", "")
	if !e.IsValid() {
		t.Fatalf("empty message should clear the error")
	}
}

func TestReset_RestoresInitialState(t *testing.T) {
	initial := formengine.Values{
		"email":   "",
		"profile": map[string]any{"tags": []any{"go"}},
	}
	e, err := formengine.New(initial, formengine.Rules{"email": {Required: true}},
		func(context.Context, formengine.Values) error { return nil }, formengine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	initial["email"] = "mutated-by-caller"
	e.HandleChange("email", "a@b.com")
	e.HandleChange("profile", map[string]any{"tags": []any{"rust"}})
	e.HandleBlur("email")
	e.SetFieldError("profile", "bad")
	e.HandleSubmit(context.Background())

	e.Reset()

	want := formengine.State{
		Values:  formengine.Values{"email": "", "profile": map[string]any{"tags": []any{"go"}}},
		Errors:  formengine.Errors{},
		Touched: formengine.Touched{},
		IsValid: true,
	}
	if diff := cmp.Diff(want, e.Snapshot()); diff != "" {
		t.Fatalf("state after reset mismatch (-want +got):\n%s", diff)
	}
}

func TestValues_ReturnsCopies(t *testing.T) {
	e := loginForm(t, &submitRecorder{})
	values := e.Values()
	values["email"] = "sneaky"
	if v, _ := e.Value("email"); v != "" {
		t.Fatalf("engine state leaked through Values(): %v", v)
	}
}

func TestReset_TypedContainersAreNotShared(t *testing.T) {
	initial := formengine.Values{
		"scores": []int{1, 2},
		"meta":   map[string]string{"k": "v"},
		"rows":   []map[string]any{{"id": 1}},
	}
	e, err := formengine.New(initial, nil,
		func(context.Context, formengine.Values) error { return nil }, formengine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	initial["scores"].([]int)[0] = 99
	initial["meta"].(map[string]string)["k"] = "mutated"
	initial["rows"].([]map[string]any)[0]["id"] = 2

	current := e.Values()
	current["scores"].([]int)[1] = 77
	e.InitialValues()["meta"].(map[string]string)["k"] = "also mutated"

	e.Reset()

	want := formengine.Values{
		"scores": []int{1, 2},
		"meta":   map[string]string{"k": "v"},
		"rows":   []map[string]any{{"id": 1}},
	}
	if diff := cmp.Diff(want, e.Values()); diff != "" {
		t.Fatalf("values after reset mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, e.InitialValues()); diff != "" {
		t.Fatalf("initial values mismatch (-want +got):\n%s", diff)
	}
}

func TestDirtyTracking_EmptyListsMatchNil(t *testing.T) {
	e, err := formengine.New(formengine.Values{"tags": []string{}, "extra": nil}, nil,
		func(context.Context, formengine.Values) error { return nil }, formengine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	e.HandleChange("tags", nil)
	e.HandleChange("extra", map[string]any{})
	if e.IsDirty() {
		t.Fatalf("nil and empty containers should compare equal, dirty: %v", e.DirtyFields())
	}
	e.HandleChange("tags", []string{"go"})
	if diff := cmp.Diff([]string{"tags"}, e.DirtyFields()); diff != "" {
		t.Fatalf("dirty fields mismatch (-want +got):\n%s", diff)
	}
}

func TestDirtyTracking(t *testing.T) {
	e := loginForm(t, &submitRecorder{})
	if e.IsDirty() {
		t.Fatalf("fresh engine should not be dirty")
	}
	e.HandleChange("email", "a@b.com")
	if diff := cmp.Diff([]string{"email"}, e.DirtyFields()); diff != "" {
		t.Fatalf("dirty fields mismatch (-want +got):\n%s", diff)
	}
	e.HandleChange("email", "")
	if e.IsDirty() {
		t.Fatalf("restoring the initial value should clear dirtiness")
	}
}

func TestObserver_SeesSubmittingTransitions(t *testing.T) {
	var seen []bool
	rec := &submitRecorder{}
	e := loginForm(t, rec, formengine.WithObserver(func(s formengine.State) {
		seen = append(seen, s.IsSubmitting)
	}))
	e.HandleChange("email", "a@b.com")
	e.HandleChange("password", "longenough")
	seen = nil

	e.HandleSubmit(context.Background())

	if diff := cmp.Diff([]bool{true, false}, seen); diff != "" {
		t.Fatalf("observer transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleSubmit_PassesContext(t *testing.T) {
	type key struct{}
	var got any
	e, err := formengine.New(formengine.Values{}, nil, func(ctx context.Context, _ formengine.Values) error {
		got = ctx.Value(key{})
		return nil
	}, formengine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	e.HandleSubmit(context.WithValue(context.Background(), key{}, "req-1"))
	if got != "req-1" {
		t.Fatalf("expected context to reach submit func, got %v", got)
	}
}
