package formengine

import (
	"fmt"
	"strings"
)

// Messages holds the fmt templates used for built-in rule violations. Every
// template receives the field name first; the length templates also receive
// the configured bound.
type Messages struct {
	Required  string
	MinLength string
	MaxLength string
	Invalid   string
}

// DefaultMessages returns the English templates used when no override is set.
func DefaultMessages() Messages {
	return Messages{
		Required:  "%s is required",
		MinLength: "%s must be at least %d characters",
		MaxLength: "%s must be at most %d characters",
		Invalid:   "%s is invalid",
	}
}

func (m Messages) withDefaults() Messages {
	def := DefaultMessages()
	if strings.TrimSpace(m.Required) == "" {
		m.Required = def.Required
	}
	if strings.TrimSpace(m.MinLength) == "" {
		m.MinLength = def.MinLength
	}
	if strings.TrimSpace(m.MaxLength) == "" {
		m.MaxLength = def.MaxLength
	}
	if strings.TrimSpace(m.Invalid) == "" {
		m.Invalid = def.Invalid
	}
	return m
}

func (m Messages) required(name string) string {
	return fmt.Sprintf(m.Required, name)
}

func (m Messages) minLength(name string, n int) string {
	return fmt.Sprintf(m.MinLength, name, n)
}

func (m Messages) maxLength(name string, n int) string {
	return fmt.Sprintf(m.MaxLength, name, n)
}

func (m Messages) invalid(name, override string) string {
	if override != "" {
		return override
	}
	return fmt.Sprintf(m.Invalid, name)
}
