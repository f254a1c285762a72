package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-formstate/pkg/formengine"
)

// HTTPOption configures the HTTP transport.
type HTTPOption func(*httpTransport)

type httpTransport struct {
	client  *http.Client
	method  string
	url     string
	headers http.Header
	fields  []string
}

// WithClient overrides http.DefaultClient.
func WithClient(client *http.Client) HTTPOption {
	return func(t *httpTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithMethod overrides the POST default.
func WithMethod(method string) HTTPOption {
	return func(t *httpTransport) {
		if m := strings.TrimSpace(method); m != "" {
			t.method = strings.ToUpper(m)
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) HTTPOption {
	return func(t *httpTransport) {
		t.headers.Add(key, value)
	}
}

// WithFields names the form fields so error payload paths can be mapped onto
// them. Without it only bare field names are recognised.
func WithFields(fields ...string) HTTPOption {
	return func(t *httpTransport) {
		t.fields = append(t.fields, fields...)
	}
}

type errorEnvelope struct {
	Errors map[string][]string `json:"errors"`
}

// HTTP returns a submit func that sends values as a JSON body to url. A 2xx
// response succeeds. A 400 or 422 response whose body carries
// {"errors": {"path": ["message"]}} yields *FieldErrors; any other response is
// a plain error.
func HTTP(url string, options ...HTTPOption) formengine.SubmitFunc {
	t := &httpTransport{
		client:  http.DefaultClient,
		method:  http.MethodPost,
		url:     url,
		headers: http.Header{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	return t.submit
}

func (t *httpTransport) submit(ctx context.Context, values formengine.Values) error {
	body, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("submit: encode values: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, t.method, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, vals := range t.headers {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit: %s %s: %w", t.method, t.url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		var envelope errorEnvelope
		if err := json.Unmarshal(payload, &envelope); err == nil && len(envelope.Errors) > 0 {
			fields := t.fields
			if len(fields) == 0 {
				for name := range values {
					fields = append(fields, name)
				}
			}
			return MapErrorPayload(fields, envelope.Errors)
		}
	}
	return fmt.Errorf("submit: %s %s: unexpected status %s", t.method, t.url, resp.Status)
}
