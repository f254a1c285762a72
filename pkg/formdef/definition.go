package formdef

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-formstate/pkg/formengine"
)

var (
	ErrDefinitionIDMissing = errors.New("formdef: definition id is required")
	ErrFieldNameMissing    = errors.New("formdef: field name is required")
	ErrDuplicateField      = errors.New("formdef: duplicate field")
)

// FieldType hints how collaborators should collect a value. The engine itself
// does not interpret it.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeSecret   FieldType = "secret"
	FieldTypeTextArea FieldType = "textarea"
	FieldTypeInteger  FieldType = "integer"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeSelect   FieldType = "select"
	FieldTypeObject   FieldType = "object"
	FieldTypeArray    FieldType = "array"
)

// Definition is the declarative form description.
type Definition struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`
	// Source records where the definition was loaded from.
	Source string `json:"-" yaml:"-"`
}

// Field describes one form field.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Type        FieldType `json:"type,omitempty" yaml:"type,omitempty"`
	Options     []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Initial     any       `json:"initial,omitempty" yaml:"initial,omitempty"`

	Required  bool   `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength int    `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// DisplayLabel returns the label, falling back to the field name.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// Validated reports whether the field declares any constraint. Fields without
// constraints are left out of the rule table.
func (f Field) Validated() bool {
	return f.Required || f.MinLength > 0 || f.MaxLength > 0 || f.Pattern != "" || f.Format != ""
}

// Rule compiles the field constraints into a formengine.Rule.
func (f Field) Rule() (formengine.Rule, error) {
	rule := formengine.Rule{
		Required:  f.Required,
		MinLength: f.MinLength,
		MaxLength: f.MaxLength,
		Format:    strings.TrimSpace(f.Format),
		Message:   f.Message,
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return formengine.Rule{}, fmt.Errorf("formdef: field %q pattern: %w", f.Name, err)
		}
		rule.Pattern = re
	}
	return rule, nil
}

// Validate checks structural integrity: an id, named and unique fields, and
// compilable patterns.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrDefinitionIDMissing
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for idx, field := range d.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("%w (index %d)", ErrFieldNameMissing, idx)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w %q", ErrDuplicateField, name)
		}
		seen[name] = struct{}{}
		if field.MinLength < 0 || field.MaxLength < 0 {
			return fmt.Errorf("formdef: field %q: negative length bound", name)
		}
		if field.MaxLength > 0 && field.MinLength > field.MaxLength {
			return fmt.Errorf("formdef: field %q: minLength %d exceeds maxLength %d", name, field.MinLength, field.MaxLength)
		}
		if _, err := field.Rule(); err != nil {
			return err
		}
	}
	return nil
}

// Field returns the named field.
func (d Definition) Field(name string) (Field, bool) {
	for _, field := range d.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Values returns the initial values, one entry per field. Fields without an
// initial value start as "" for text-like types and nil otherwise.
func (d Definition) Values() formengine.Values {
	values := make(formengine.Values, len(d.Fields))
	for _, field := range d.Fields {
		values[field.Name] = initialValue(field)
	}
	return values
}

// Rules returns the rule table for fields that declare constraints.
func (d Definition) Rules() (formengine.Rules, error) {
	rules := make(formengine.Rules)
	for _, field := range d.Fields {
		if !field.Validated() {
			continue
		}
		rule, err := field.Rule()
		if err != nil {
			return nil, err
		}
		rules[field.Name] = rule
	}
	return rules, nil
}

// NewEngine validates the definition and constructs an engine for it.
func (d Definition) NewEngine(onSubmit formengine.SubmitFunc, options ...formengine.Option) (*formengine.Engine, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	rules, err := d.Rules()
	if err != nil {
		return nil, err
	}
	return formengine.New(d.Values(), rules, onSubmit, options...)
}

func initialValue(field Field) any {
	if field.Initial != nil {
		return field.Initial
	}
	switch field.Type {
	case "", FieldTypeString, FieldTypeSecret, FieldTypeTextArea, FieldTypeSelect:
		return ""
	default:
		return nil
	}
}
