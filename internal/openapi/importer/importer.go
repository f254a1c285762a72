package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/formdef"
	pkgopenapi "github.com/goliatone/go-formstate/pkg/openapi"
)

var (
	errOperationNotFound = errors.New("openapi importer: operation not found")
	errNoRequestBody     = errors.New("openapi importer: operation has no request body")
	errNotObject         = errors.New("openapi importer: request body is not an object schema")
)

// Importer implements pkgopenapi.Importer using kin-openapi.
type Importer struct {
	options pkgopenapi.ImporterOptions
}

var _ pkgopenapi.Importer = (*Importer)(nil)

// New constructs an Importer with the given options.
func New(options pkgopenapi.ImporterOptions) *Importer {
	return &Importer{options: options}
}

// Operations lists operations with a request body, sorted by id.
func (i *Importer) Operations(ctx context.Context, doc pkgopenapi.Document) ([]pkgopenapi.OperationInfo, error) {
	spec, err := i.load(ctx, doc)
	if err != nil {
		return nil, err
	}

	var out []pkgopenapi.OperationInfo
	walkOperations(spec, func(method, path string, op *openapi3.Operation) {
		if op.RequestBody == nil {
			return
		}
		out = append(out, pkgopenapi.OperationInfo{
			ID:      operationID(method, path, op),
			Method:  method,
			Path:    path,
			Summary: op.Summary,
		})
	})
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// Definition builds a form definition from the request body of operationID.
// Top-level object properties become fields in name order.
func (i *Importer) Definition(ctx context.Context, doc pkgopenapi.Document, operationID string) (formdef.Definition, error) {
	spec, err := i.load(ctx, doc)
	if err != nil {
		return formdef.Definition{}, err
	}

	op := findOperation(spec, operationID)
	if op == nil {
		return formdef.Definition{}, fmt.Errorf("%w: %q", errOperationNotFound, operationID)
	}
	schema := i.requestSchema(op.RequestBody)
	if schema == nil {
		return formdef.Definition{}, fmt.Errorf("%w: %q", errNoRequestBody, operationID)
	}
	if !isType(schema, "object") && len(schema.Properties) == 0 {
		return formdef.Definition{}, fmt.Errorf("%w: %q", errNotObject, operationID)
	}

	def := formdef.Definition{
		ID:          operationID,
		Title:       op.Summary,
		Description: op.Description,
		Source:      doc.Location(),
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		def.Fields = append(def.Fields, convertField(name, ref.Value, required[name]))
	}

	if err := def.Validate(); err != nil {
		return formdef.Definition{}, fmt.Errorf("openapi importer: %w", err)
	}
	return def, nil
}

func (i *Importer) load(ctx context.Context, doc pkgopenapi.Document) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi importer: document payload is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = i.options.ResolveReferences

	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi importer: load document: %w", err)
	}
	if i.options.ResolveReferences {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi importer: validate: %w", err)
		}
	}
	return spec, nil
}

func (i *Importer) requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range i.options.MediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func convertField(name string, src *openapi3.Schema, required bool) formdef.Field {
	field := formdef.Field{
		Name:        name,
		Label:       src.Title,
		Description: src.Description,
		Type:        fieldType(src),
		Initial:     src.Default,
		Required:    required,
		Pattern:     src.Pattern,
		Format:      formatTag(src.Format),
	}
	if src.MinLength > 0 {
		field.MinLength = int(src.MinLength)
	}
	if src.MaxLength != nil {
		field.MaxLength = int(*src.MaxLength)
	}
	for _, value := range src.Enum {
		field.Options = append(field.Options, fmt.Sprint(value))
	}
	return field
}

func fieldType(src *openapi3.Schema) formdef.FieldType {
	switch {
	case len(src.Enum) > 0:
		return formdef.FieldTypeSelect
	case isType(src, "boolean"):
		return formdef.FieldTypeBoolean
	case isType(src, "integer"):
		return formdef.FieldTypeInteger
	case isType(src, "number"):
		return formdef.FieldTypeNumber
	case isType(src, "array"):
		return formdef.FieldTypeArray
	case isType(src, "object"):
		return formdef.FieldTypeObject
	case src.Format == "password":
		return formdef.FieldTypeSecret
	case src.Format == "textarea" || (src.MaxLength != nil && *src.MaxLength > 255):
		return formdef.FieldTypeTextArea
	default:
		return formdef.FieldTypeString
	}
}

// formatTag maps OpenAPI string formats onto validator tags. Unknown formats
// are dropped rather than enforced.
func formatTag(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "email":
		return "email"
	case "uri", "url":
		return "url"
	case "uuid":
		return "uuid"
	case "hostname":
		return "hostname"
	case "ipv4":
		return "ipv4"
	case "ipv6":
		return "ipv6"
	case "date":
		return "datetime=2006-01-02"
	case "date-time":
		return "datetime=2006-01-02T15:04:05Z07:00"
	default:
		return ""
	}
}

func isType(src *openapi3.Schema, typ string) bool {
	if src == nil || src.Type == nil {
		return false
	}
	for _, t := range src.Type.Slice() {
		if t == typ {
			return true
		}
	}
	return false
}

func walkOperations(spec *openapi3.T, fn func(method, path string, op *openapi3.Operation)) {
	if spec == nil || spec.Paths == nil {
		return
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op != nil {
				fn(strings.ToUpper(method), path, op)
			}
		}
	}
}

func findOperation(spec *openapi3.T, id string) *openapi3.Operation {
	var found *openapi3.Operation
	walkOperations(spec, func(method, path string, op *openapi3.Operation) {
		if found == nil && operationID(method, path, op) == id {
			found = op
		}
	})
	return found
}

func operationID(method, path string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToLower(method) + ":" + path
}
