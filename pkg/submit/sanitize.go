package submit

import (
	"context"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formstate/pkg/formengine"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func defaultPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Sanitize strips markup from every string value, including strings nested in
// maps and slices, before calling the next submit func. A nil policy uses
// bluemonday's strict policy, which removes all elements and escapes the rest.
func Sanitize(policy *bluemonday.Policy) Middleware {
	if policy == nil {
		policy = defaultPolicy()
	}
	return func(next formengine.SubmitFunc) formengine.SubmitFunc {
		return func(ctx context.Context, values formengine.Values) error {
			clean := make(formengine.Values, len(values))
			for name, value := range values {
				clean[name] = sanitizeValue(policy, value)
			}
			return next(ctx, clean)
		}
	}
}

func sanitizeValue(policy *bluemonday.Policy, value any) any {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(policy.Sanitize(typed))
	case []string:
		out := make([]string, len(typed))
		for i, s := range typed {
			out[i] = strings.TrimSpace(policy.Sanitize(s))
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = sanitizeValue(policy, v)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = sanitizeValue(policy, v)
		}
		return out
	default:
		return typed
	}
}
