package payload

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/payload.schema.json
var defaultSchemaJSON []byte

// DefaultSchema returns a copy of the built-in payload schema
func DefaultSchema() []byte {
	return append([]byte(nil), defaultSchemaJSON...)
}

// Violation is one failed schema rule at an instance path
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// SchemaError rejects a whole payload and lists every violated path
type SchemaError struct {
	Violations []Violation `json:"violations"`
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Path + ": " + v.Message
	}
	return fmt.Sprintf("payload failed schema validation (%d violations): %s", len(e.Violations), strings.Join(parts, "; "))
}

// Paths returns the distinct violated instance paths in sorted order
func (e *SchemaError) Paths() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, v := range e.Violations {
		if !seen[v.Path] {
			seen[v.Path] = true
			paths = append(paths, v.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// SchemaValidator gates raw payloads before any mapping happens
type SchemaValidator struct {
	schema *jsonschema.Schema
	source string
}

// NewSchemaValidator compiles a schema document
func NewSchemaValidator(name string, schemaJSON []byte) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}
	return &SchemaValidator{schema: schema, source: name}, nil
}

// LoadSchemaValidator compiles the schema at path, or the built-in schema when path is empty
func LoadSchemaValidator(path string) (*SchemaValidator, error) {
	if path == "" {
		return NewSchemaValidator("payload.schema.json", defaultSchemaJSON)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload schema: %w", err)
	}
	return NewSchemaValidator(path, data)
}

// Source names the schema in use
func (v *SchemaValidator) Source() string {
	return v.source
}

// Validate checks raw JSON against the schema.
// Schema failures are returned as *SchemaError; malformed JSON wraps ErrInvalidPayload.
func (v *SchemaValidator) Validate(raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate payload: %w", err)
	}

	schemaErr := &SchemaError{}
	collectViolations(ve, &schemaErr.Violations)
	sort.SliceStable(schemaErr.Violations, func(i, j int) bool {
		return schemaErr.Violations[i].Path < schemaErr.Violations[j].Path
	})
	return schemaErr
}

// collectViolations flattens the cause tree into its leaves
func collectViolations(ve *jsonschema.ValidationError, out *[]Violation) {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "/"
		}
		*out = append(*out, Violation{Path: path, Message: ve.Message})
		return
	}
	for _, cause := range ve.Causes {
		collectViolations(cause, out)
	}
}
