package openapi

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/formdef"
)

// OperationInfo summarises an operation that carries a request body.
type OperationInfo struct {
	ID      string `json:"id" yaml:"id"`
	Method  string `json:"method" yaml:"method"`
	Path    string `json:"path" yaml:"path"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Importer turns OpenAPI request bodies into form definitions.
type Importer interface {
	Operations(ctx context.Context, doc Document) ([]OperationInfo, error)
	Definition(ctx context.Context, doc Document, operationID string) (formdef.Definition, error)
}

// ImporterOptions toggles importer behaviour.
type ImporterOptions struct {
	// ResolveReferences allows external $ref resolution and validates the
	// document before import.
	ResolveReferences bool
	// MediaTypes lists request body media types in preference order.
	MediaTypes []string
}

// ImporterOption mutates ImporterOptions during construction.
type ImporterOption func(*ImporterOptions)

// WithReferenceResolution toggles reference resolution and validation.
func WithReferenceResolution(enabled bool) ImporterOption {
	return func(opts *ImporterOptions) {
		opts.ResolveReferences = enabled
	}
}

// WithMediaTypes overrides the request body media type preference.
func WithMediaTypes(types ...string) ImporterOption {
	return func(opts *ImporterOptions) {
		if len(types) > 0 {
			opts.MediaTypes = append([]string(nil), types...)
		}
	}
}

// NewImporterOptions returns defaults (reference resolution on, JSON first)
// with options applied.
func NewImporterOptions(options ...ImporterOption) ImporterOptions {
	cfg := ImporterOptions{
		ResolveReferences: true,
		MediaTypes:        []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"},
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
