package formstate

import (
	internalImporter "github.com/goliatone/go-formstate/internal/openapi/importer"
	internalLoader "github.com/goliatone/go-formstate/internal/openapi/loader"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

// NewLoader constructs an OpenAPI loader backed by the internal implementation.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewImporter constructs an OpenAPI importer backed by kin-openapi.
func NewImporter(options ...pkgopenapi.ImporterOption) pkgopenapi.Importer {
	return internalImporter.New(pkgopenapi.NewImporterOptions(options...))
}
