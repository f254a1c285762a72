package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/formdef"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

func loadDefinition(path string) (formdef.Definition, error) {
	if strings.TrimSpace(path) == "" {
		return formdef.Definition{}, NewExitError(ExitCommandError, "--def is required")
	}
	def, err := formdef.LoadFile(path)
	if err != nil {
		return formdef.Definition{}, WrapExitError(ExitCommandError, "load definition", err)
	}
	return def, nil
}

// loadValues reads a YAML or JSON object of field values.
func loadValues(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read values", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parse values %s", path), err)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values, nil
}

func parseSource(raw string) (pkgopenapi.Source, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return nil, NewExitError(ExitCommandError, "--openapi is required")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		src, err := pkgopenapi.ParseURLSource(location)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid source", err)
		}
		return src, nil
	}
	return pkgopenapi.SourceFromFile(location), nil
}
