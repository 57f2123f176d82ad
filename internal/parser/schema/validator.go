package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// catalogSchemaURL identifies the generated schema inside the compiler
const catalogSchemaURL = "https://schemas.caldeco.dev/v1/catalog.json"

// Validator validates catalog documents against the JSON Schema generated
// from the catalog types
type Validator struct {
	schema *jsonschema.Schema
}

// ValidationError represents a validation error with context
type ValidationError struct {
	Message string `json:"message"`
	// Path is a JSON pointer into the document, for example /formulas/0/name
	Path string `json:"path"`
}

// ValidationResult contains the results of catalog validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidator compiles the catalog schema
func NewValidator() (*Validator, error) {
	schemaData, err := ast.NewSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(catalogSchemaURL, bytes.NewReader(schemaData)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile(catalogSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateFile validates a catalog file
func (v *Validator) ValidateFile(filename string) (*ValidationResult, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return v.ValidateBytes(data)
}

// ValidateBytes validates a YAML or JSON catalog document
func (v *Validator) ValidateBytes(data []byte) (*ValidationResult, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return invalid("", fmt.Sprintf("YAML parsing error: %v", err)), nil
	}

	// Round-trip through JSON so the validator sees JSON numbers and
	// string-keyed objects only.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return invalid("", fmt.Sprintf("document is not representable as JSON: %v", err)), nil
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	err = v.schema.Validate(doc)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return invalid("", err.Error()), nil
	}

	return &ValidationResult{
		Valid:  false,
		Errors: leafErrors(validationErr),
	}, nil
}

func invalid(path, message string) *ValidationResult {
	return &ValidationResult{
		Valid:  false,
		Errors: []ValidationError{{Message: message, Path: path}},
	}
}

// leafErrors flattens the cause tree into its most specific errors
func leafErrors(err *jsonschema.ValidationError) []ValidationError {
	if len(err.Causes) == 0 {
		return []ValidationError{{
			Message: err.Message,
			Path:    err.InstanceLocation,
		}}
	}

	var errs []ValidationError
	for _, cause := range err.Causes {
		errs = append(errs, leafErrors(cause)...)
	}
	return errs
}
