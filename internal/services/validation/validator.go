// Package validation checks request bodies against embedded JSON schemas
// before they are decoded into service inputs.
package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
)

// Schema names, one per embedded schemas/<name>.json.
const (
	SchemaRegister = "register"
	SchemaLogin    = "login"
	SchemaRefresh  = "refresh"
	SchemaProfile  = "profile"
	SchemaRoles    = "roles"
	SchemaStatus   = "status"
	SchemaResource = "resource"
	SchemaImport   = "import"
)

// ErrUnknownSchema is returned for a schema name with no embedded file.
var ErrUnknownSchema = errors.New("unknown schema")

//go:embed schemas/*.json
var schemaFS embed.FS

// RequestValidator validates JSON bodies, caching compiled schemas by name.
type RequestValidator struct {
	schemaCache *lru.Cache[string, *jsonschema.Schema]
}

// NewRequestValidator creates a validator with LRU caching for compiled schemas.
func NewRequestValidator(cacheSize int) (*RequestValidator, error) {
	cache, err := lru.New[string, *jsonschema.Schema](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create schema cache: %w", err)
	}
	return &RequestValidator{schemaCache: cache}, nil
}

// Validate checks body against the named schema. Violations wrap models.ErrInvalid.
func (v *RequestValidator) Validate(name string, body []byte) error {
	schema, err := v.schema(name)
	if err != nil {
		return err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: body is not valid JSON", models.ErrInvalid)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalid, formatValidationError(err))
	}
	return nil
}

func (v *RequestValidator) schema(name string) (*jsonschema.Schema, error) {
	if cached, ok := v.schemaCache.Get(name); ok {
		return cached, nil
	}

	raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	schema, err := compileSchema(name, raw)
	if err != nil {
		return nil, err
	}
	v.schemaCache.Add(name, schema)
	return schema, nil
}

// compileSchema compiles one schema document in its own compiler.
func compileSchema(name string, raw []byte) (*jsonschema.Schema, error) {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)

	url := name + ".json"
	if err := compiler.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// formatValidationError renders the failing instance location as a JSON path,
// e.g. "at '$.email': ...". Long library messages are truncated.
func formatValidationError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	// Report the first leaf violation; the root only says the document failed.
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}

	path := "$"
	var parts []string
	for _, part := range ve.InstanceLocation {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		path = "$." + strings.Join(parts, ".")
	}

	msg := ve.Error()
	if len(msg) > 200 {
		msg = msg[:200] + "... (truncated)"
	}
	return fmt.Sprintf("at '%s': %s", path, msg)
}

// CacheSize returns the number of compiled schemas held.
func (v *RequestValidator) CacheSize() int {
	return v.schemaCache.Len()
}
