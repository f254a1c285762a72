// Package openapi exposes the public contracts for importing form definitions
// from OpenAPI 3 documents: sources, raw documents, loaders and importers.
// Implementations live under internal/openapi so kin-openapi stays hidden from
// consumers; construction helpers live in the root formstate package.
package openapi
