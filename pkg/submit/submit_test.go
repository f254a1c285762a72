package submit_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formstate/pkg/formengine"
	"github.com/goliatone/go-formstate/pkg/submit"
)

func TestChainOrder(t *testing.T) {
	var calls []string
	mark := func(name string) submit.Middleware {
		return func(next formengine.SubmitFunc) formengine.SubmitFunc {
			return func(ctx context.Context, values formengine.Values) error {
				calls = append(calls, name)
				return next(ctx, values)
			}
		}
	}
	final := func(context.Context, formengine.Values) error {
		calls = append(calls, "final")
		return nil
	}

	fn := submit.Chain(final, mark("outer"), nil, mark("inner"))
	if err := fn(context.Background(), formengine.Values{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"outer", "inner", "final"}, calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeStripsMarkup(t *testing.T) {
	var got formengine.Values
	fn := submit.Chain(func(_ context.Context, values formengine.Values) error {
		got = values
		return nil
	}, submit.Sanitize(nil))

	input := formengine.Values{
		"name":   `  <b>Ada</b><script>alert(1)</script> `,
		"age":    36,
		"tags":   []string{"<i>go</i>", "plain"},
		"nested": map[string]any{"bio": "<p>hello</p>", "list": []any{"<em>x</em>", 1}},
	}
	if err := fn(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := formengine.Values{
		"name":   "Ada",
		"age":    36,
		"tags":   []string{"go", "plain"},
		"nested": map[string]any{"bio": "hello", "list": []any{"x", 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitized values mismatch (-want +got):\n%s", diff)
	}
	if input["name"] != `  <b>Ada</b><script>alert(1)</script> ` {
		t.Fatalf("input mutated: %q", input["name"])
	}
}

func TestSanitizeCustomPolicy(t *testing.T) {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b")

	var got formengine.Values
	fn := submit.Sanitize(policy)(func(_ context.Context, values formengine.Values) error {
		got = values
		return nil
	})
	if err := fn(context.Background(), formengine.Values{"v": "<b>bold</b><i>it</i>"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["v"] != "<b>bold</b>it" {
		t.Fatalf("expected custom policy to keep <b>, got %q", got["v"])
	}
}

func TestMapErrorPayload(t *testing.T) {
	got := submit.MapErrorPayload([]string{"email", "name"}, map[string][]string{
		"/body/email":  {"already registered", "already registered"},
		"name":         {"  "},
		"$.name":       {"too common"},
		"":             {"request rejected"},
		"/body/phone":  {"phone unsupported"},
		"items[0].sku": {"unknown sku"},
	})

	want := &submit.FieldErrors{
		Fields: map[string]string{
			"email": "already registered",
			"name":  "too common",
		},
		Form: []string{"request rejected", "phone unsupported", "unknown sku"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mapping mismatch (-want +got):\n%s", diff)
	}
}

type recorder struct {
	errors map[string]string
}

func (r *recorder) SetFieldError(name, message string) {
	if r.errors == nil {
		r.errors = map[string]string{}
	}
	r.errors[name] = message
}

func TestReporterAppliesFieldErrors(t *testing.T) {
	rejection := &submit.FieldErrors{
		Fields: map[string]string{"email": "already registered"},
		Form:   []string{"try again later"},
	}
	reporter := submit.NewReporter("_form")
	target := &recorder{}
	reporter.Bind(target)

	fn := reporter.Middleware()(func(context.Context, formengine.Values) error {
		return fmt.Errorf("transport: %w", rejection)
	})
	err := fn(context.Background(), formengine.Values{})
	if !errors.Is(err, rejection) {
		t.Fatalf("expected rejection to propagate, got %v", err)
	}

	want := map[string]string{"email": "already registered", "_form": "try again later"}
	if diff := cmp.Diff(want, target.errors); diff != "" {
		t.Fatalf("reported errors mismatch (-want +got):\n%s", diff)
	}
}

func TestReporterIgnoresOtherErrors(t *testing.T) {
	reporter := submit.NewReporter("")
	target := &recorder{}
	reporter.Bind(target)

	fn := reporter.Middleware()(func(context.Context, formengine.Values) error {
		return errors.New("boom")
	})
	if err := fn(context.Background(), formengine.Values{}); err == nil {
		t.Fatal("expected error")
	}
	if len(target.errors) != 0 {
		t.Fatalf("expected no field errors, got %v", target.errors)
	}
}

func TestReporterWithEngine(t *testing.T) {
	reporter := submit.NewReporter("")
	transport := func(context.Context, formengine.Values) error {
		return &submit.FieldErrors{Fields: map[string]string{"email": "already registered"}}
	}
	engine, err := formengine.New(
		formengine.Values{"email": "a@b.com"},
		formengine.Rules{"email": {Required: true}},
		submit.Chain(transport, reporter.Middleware()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	reporter.Bind(engine)

	if engine.HandleSubmit(context.Background()) {
		t.Fatal("expected submit to report failure")
	}
	if got := engine.Error("email"); got != "already registered" {
		t.Fatalf("expected server error on field, got %q", got)
	}
	if engine.IsSubmitting() {
		t.Fatal("expected submitting flag cleared")
	}
}

func TestHTTPSubmit(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if got := r.Header.Get("X-Token"); got != "secret" {
			t.Errorf("expected X-Token header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	fn := submit.HTTP(server.URL, submit.WithMethod("put"), submit.WithHeader("X-Token", "secret"), submit.WithClient(server.Client()))
	if err := fn(context.Background(), formengine.Values{"email": "a@b.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"email": "a@b.com"}, received); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPSubmitFieldErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"/email":["already registered"]}}`))
	}))
	defer server.Close()

	err := submit.HTTP(server.URL)(context.Background(), formengine.Values{"email": "a@b.com"})
	var fieldErrs *submit.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected *FieldErrors, got %v", err)
	}
	if diff := cmp.Diff(map[string]string{"email": "already registered"}, fieldErrs.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPSubmitUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := submit.HTTP(server.URL)(context.Background(), formengine.Values{})
	if err == nil {
		t.Fatal("expected error")
	}
	var fieldErrs *submit.FieldErrors
	if errors.As(err, &fieldErrs) {
		t.Fatalf("did not expect field errors: %v", err)
	}
}
