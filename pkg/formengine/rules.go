package formengine

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule declares the constraints applied to one field. Zero MinLength and
// MaxLength mean "unset". MinLength, MaxLength, Pattern and Format only apply
// to string values.
type Rule struct {
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	// Format names a go-playground/validator tag (email, url, uuid, ...).
	Format string
	// Message replaces the built-in pattern and format violation messages.
	Message string
	// Custom runs after the built-in checks; a non-empty return is the error.
	Custom func(value any) string
}

// Rules maps field names to their rule.
type Rules map[string]Rule

func (r Rules) clone() Rules {
	out := make(Rules, len(r))
	for name, rule := range r {
		out[name] = rule
	}
	return out
}

// blank reports whether value counts as "absent" for the required check: nil
// or a string that is empty once trimmed.
func blank(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func (e *Engine) validate(name string, value any) string {
	rule, ok := e.rules[name]
	if !ok {
		return ""
	}

	if blank(value) {
		if rule.Required {
			return e.messages.required(name)
		}
		return ""
	}

	if s, ok := value.(string); ok {
		length := utf8.RuneCountInString(s)
		if rule.MinLength > 0 && length < rule.MinLength {
			return e.messages.minLength(name, rule.MinLength)
		}
		if rule.MaxLength > 0 && length > rule.MaxLength {
			return e.messages.maxLength(name, rule.MaxLength)
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(s) {
			return e.messages.invalid(name, rule.Message)
		}
		if rule.Format != "" && !e.matchesFormat(name, s, rule.Format) {
			return e.messages.invalid(name, rule.Message)
		}
	}

	if rule.Custom != nil {
		if msg := rule.Custom(value); msg != "" {
			return msg
		}
	}
	return ""
}

// matchesFormat runs a validator tag against value. validator panics on
// unknown tags; those are logged and treated as passing.
func (e *Engine) matchesFormat(name, value, tag string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("formengine: unknown format tag", "field", name, "format", tag, "error", fmt.Sprint(r))
			ok = true
		}
	}()
	return e.formats.Var(value, tag) == nil
}
