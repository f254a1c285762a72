// Package formstate is the entry point for building form engines from
// declarative sources. The engine itself lives in pkg/formengine; this package
// wires loaders and importers so callers can go from a definition file or an
// OpenAPI operation to a ready engine in one call.
package formstate

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formstate/pkg/formdef"
	"github.com/goliatone/go-formstate/pkg/formengine"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

// Values aliases formengine.Values for callers that only import the root package.
type Values = formengine.Values

// SubmitFunc aliases formengine.SubmitFunc.
type SubmitFunc = formengine.SubmitFunc

// NewEngineFromFile loads a JSON or YAML definition and builds its engine.
func NewEngineFromFile(path string, onSubmit SubmitFunc, options ...formengine.Option) (*formengine.Engine, error) {
	def, err := formdef.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return def.NewEngine(onSubmit, options...)
}

// DefinitionFromOpenAPI loads an OpenAPI document and imports the request body
// of operationID as a form definition.
func DefinitionFromOpenAPI(ctx context.Context, src pkgopenapi.Source, operationID string, loaderOptions ...pkgopenapi.LoaderOption) (formdef.Definition, error) {
	doc, err := NewLoader(loaderOptions...).Load(ctx, src)
	if err != nil {
		return formdef.Definition{}, fmt.Errorf("formstate: load %s: %w", src.Location(), err)
	}
	return NewImporter().Definition(ctx, doc, operationID)
}

// NewEngineFromOpenAPI imports operationID and builds its engine.
func NewEngineFromOpenAPI(ctx context.Context, src pkgopenapi.Source, operationID string, onSubmit SubmitFunc, options ...formengine.Option) (*formengine.Engine, error) {
	def, err := DefinitionFromOpenAPI(ctx, src, operationID)
	if err != nil {
		return nil, err
	}
	return def.NewEngine(onSubmit, options...)
}
