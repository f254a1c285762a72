package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/formengine"
)

const defaultMaxAttempts = 3

// Session collects values for one engine from the terminal.
type Session struct {
	def         formdef.Definition
	engine      *formengine.Engine
	driver      PromptDriver
	out         io.Writer
	theme       Theme
	maxAttempts int
	logger      *slog.Logger
}

// NewSession binds def to engine. Every field in def must be one the engine
// was seeded with.
func NewSession(def formdef.Definition, engine *formengine.Engine, options ...Option) (*Session, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	for _, field := range def.Fields {
		if _, ok := engine.Value(field.Name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, field.Name)
		}
	}

	s := &Session{
		def:         def,
		engine:      engine,
		out:         os.Stdout,
		theme:       DefaultTheme,
		maxAttempts: defaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = newSurveyDriver(s.out)
	}
	return s, nil
}

// Run prompts every field, then submits. When the submit func reports field
// errors (see submit.Reporter) the affected fields are prompted again and the
// form is resubmitted, up to the attempt limit. It returns true once a
// submission succeeds.
func (s *Session) Run(ctx context.Context) (bool, error) {
	if err := s.Fill(ctx); err != nil {
		return false, err
	}

	for round := 1; ; round++ {
		if s.engine.HandleSubmit(ctx) {
			s.info(ctx, s.theme.InfoPrefix+"Submitted")
			return true, nil
		}

		failed := s.invalidFields()
		if len(failed) == 0 {
			return false, ErrSubmitFailed
		}
		for _, field := range failed {
			s.info(ctx, s.theme.ErrorPrefix+s.engine.Error(field.Name))
		}
		if s.maxAttempts > 0 && round >= s.maxAttempts {
			return false, fmt.Errorf("%w: submit", ErrTooManyAttempts)
		}
		for _, field := range failed {
			if err := s.promptField(ctx, field); err != nil {
				return false, err
			}
		}
	}
}

// Fill prompts every field in definition order without submitting.
func (s *Session) Fill(ctx context.Context) error {
	for _, field := range s.def.Fields {
		if err := s.promptField(ctx, field); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptField(ctx context.Context, field formdef.Field) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, problem, err := s.ask(ctx, field)
		if err != nil {
			return err
		}

		s.engine.HandleChange(field.Name, value)
		s.engine.HandleBlur(field.Name)
		if problem != "" {
			s.engine.SetFieldError(field.Name, problem)
		}

		message := s.engine.Error(field.Name)
		if message == "" {
			return nil
		}
		s.logger.Debug("tui: field rejected", "field", field.Name, "attempt", attempt, "error", message)
		s.info(ctx, s.theme.ErrorPrefix+message)
		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, field.Name)
		}
	}
}

// ask prompts for one value. problem is a conversion failure message the
// engine's rules cannot express, such as a non-numeric answer to a number
// field.
func (s *Session) ask(ctx context.Context, field formdef.Field) (value any, problem string, err error) {
	label := s.theme.PromptPrefix + field.DisplayLabel()
	help := field.Description
	current, _ := s.engine.Value(field.Name)

	switch field.Type {
	case formdef.FieldTypeBoolean:
		def, _ := current.(bool)
		answer, err := s.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def, Help: help})
		return answer, "", err

	case formdef.FieldTypeInteger, formdef.FieldTypeNumber:
		answer, err := s.driver.Input(ctx, InputConfig{Message: label, Default: stringify(current), Help: help})
		if err != nil {
			return nil, "", err
		}
		value, problem := parseNumber(field, answer)
		return value, problem, nil

	case formdef.FieldTypeSelect:
		if len(field.Options) == 0 {
			break
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      field.Options,
			DefaultIndex: indexOf(field.Options, stringify(current)),
			Help:         help,
		})
		if err != nil {
			return nil, "", err
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", fmt.Sprintf("%s selection is invalid", field.DisplayLabel()), nil
		}
		return field.Options[idx], "", nil

	case formdef.FieldTypeArray:
		if len(field.Options) > 0 {
			indices, err := s.driver.MultiSelect(ctx, SelectConfig{
				Message:  label,
				Options:  field.Options,
				Defaults: indicesOf(field.Options, toStrings(current)),
				Help:     help,
			})
			if err != nil {
				return nil, "", err
			}
			return listValue(valuesAt(field.Options, indices)), "", nil
		}
		answer, err := s.driver.Input(ctx, InputConfig{
			Message: label,
			Default: strings.Join(toStrings(current), ", "),
			Help:    help,
		})
		if err != nil {
			return nil, "", err
		}
		return listValue(splitList(answer)), "", nil

	case formdef.FieldTypeObject:
		answer, err := s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: encodeObject(current), Help: help})
		if err != nil {
			return nil, "", err
		}
		value, problem := decodeObject(field, answer)
		return value, problem, nil

	case formdef.FieldTypeSecret:
		answer, err := s.driver.Password(ctx, InputConfig{Message: label, Help: help})
		return answer, "", err

	case formdef.FieldTypeTextArea:
		answer, err := s.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: stringify(current), Help: help})
		return answer, "", err
	}

	answer, err := s.driver.Input(ctx, InputConfig{Message: label, Default: stringify(current), Help: help})
	return answer, "", err
}

func (s *Session) invalidFields() []formdef.Field {
	var out []formdef.Field
	for _, field := range s.def.Fields {
		if s.engine.Error(field.Name) != "" {
			out = append(out, field)
		}
	}
	return out
}

func (s *Session) info(ctx context.Context, msg string) {
	if err := s.driver.Info(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("tui: print failed", "error", err)
	}
}

func parseNumber(field formdef.Field, answer string) (any, string) {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return nil, ""
	}
	if field.Type == formdef.FieldTypeInteger {
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return trimmed, fmt.Sprintf("%s must be a whole number", field.DisplayLabel())
		}
		return i, ""
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return trimmed, fmt.Sprintf("%s must be a number", field.DisplayLabel())
	}
	return f, ""
}

// decodeObject accepts YAML or JSON, which is a subset of YAML.
func decodeObject(field formdef.Field, answer string) (any, string) {
	if strings.TrimSpace(answer) == "" {
		return nil, ""
	}
	var out map[string]any
	if err := yaml.Unmarshal([]byte(answer), &out); err != nil || out == nil {
		return answer, fmt.Sprintf("%s must be a YAML or JSON object", field.DisplayLabel())
	}
	return out, ""
}

func encodeObject(value any) string {
	if value == nil {
		return ""
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func stringify(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func toStrings(value any) []string {
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, v := range typed {
			out = append(out, stringify(v))
		}
		return out
	default:
		return nil
	}
}

// listValue maps an empty selection to nil so Required applies to it.
func listValue(list []string) any {
	if len(list) == 0 {
		return nil
	}
	return list
}

func splitList(answer string) []string {
	var out []string
	for _, part := range strings.Split(answer, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
