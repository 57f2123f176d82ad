package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/Ergy12/caldeco/internal/expression"
)

// InputValidationError represents a rejected input value
type InputValidationError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
	Value   string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Error implements the error interface
func (e *InputValidationError) Error() string {
	return fmt.Sprintf("input '%s': %s", e.Field, e.Message)
}

// InputValidationResult holds the results of input validation.
// ProcessedInputs is keyed by variable ID and always contains the defaults
// of every variable, with accepted values merged over them.
type InputValidationResult struct {
	Valid           bool                    `json:"valid" yaml:"valid"`
	Errors          []*InputValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
	ProcessedInputs map[string]string       `json:"processed_inputs,omitempty" yaml:"processed_inputs,omitempty"`
}

// Error joins the messages of every rejected input
func (r *InputValidationResult) Error() string {
	messages := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		messages = append(messages, err.Error())
	}
	return "invalid inputs: " + strings.Join(messages, "; ")
}

// ToError returns the result as an error when any input was rejected
func (r *InputValidationResult) ToError() error {
	if r.Valid {
		return nil
	}
	return r
}

// AddError adds a validation error
func (r *InputValidationResult) AddError(field, message, value string) {
	r.Valid = false
	r.Errors = append(r.Errors, &InputValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
}

// DefaultInputs seeds an input map from the initial value of every variable.
// Variables that are not bound to an input field keep their initial value
// for the whole calculation.
func DefaultInputs(catalog *ast.Catalog) map[string]string {
	inputs := make(map[string]string, len(catalog.Variables))
	for _, variable := range catalog.Variables {
		if _, ok := inputs[variable.ID]; !ok {
			inputs[variable.ID] = variable.InitialValue
		}
	}
	return inputs
}

// ValidateInputs merges provided values over the catalog defaults. Keys may
// be a variable ID or the ID of the input field bound to it. Only variables
// bound to an input field accept values, and a choice variable only accepts
// one of its options. Values are not coerced here: a value that does not
// parse as its variable's type surfaces as an error in the formulas that
// use it.
func ValidateInputs(catalog *ast.Catalog, provided map[string]string) *InputValidationResult {
	result := &InputValidationResult{
		Valid:           true,
		ProcessedInputs: DefaultInputs(catalog),
	}

	keys := make([]string, 0, len(provided))
	for key := range provided {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := provided[key]

		variable, ok := resolveInput(catalog, key)
		if !ok {
			result.AddError(key, "unknown input: no variable or input field with this id", value)
			continue
		}

		if _, bound := catalog.InputFieldFor(variable.ID); !bound {
			result.AddError(key, fmt.Sprintf("variable %s is not bound to an input field", variable.ID), value)
			continue
		}

		if variable.Type == ast.TypeChoice && !variable.HasOption(value) {
			result.AddError(key, fmt.Sprintf("value must be one of: %s", strings.Join(variable.Options, ", ")), value)
			continue
		}

		result.ProcessedInputs[variable.ID] = value
	}

	return result
}

// resolveInput finds the variable an input key refers to
func resolveInput(catalog *ast.Catalog, key string) (*ast.Variable, bool) {
	if variable, ok := catalog.GetVariable(key); ok {
		return variable, true
	}
	if field, ok := catalog.GetInputField(key); ok {
		return catalog.GetVariable(field.VariableID)
	}
	return nil, false
}

// CatalogValidator runs the structural catalog checks and verifies that
// every non-blank initial value can be read as its variable's type.
type CatalogValidator struct {
	structural *ast.Validator
}

// NewCatalogValidator creates a CatalogValidator
func NewCatalogValidator() *CatalogValidator {
	return &CatalogValidator{structural: ast.NewValidator()}
}

// ValidateCatalog validates a catalog with a new CatalogValidator
func ValidateCatalog(catalog *ast.Catalog) *ast.ValidationResult {
	return NewCatalogValidator().ValidateCatalog(catalog)
}

// ValidateCatalog implements parser.CatalogValidator
func (v *CatalogValidator) ValidateCatalog(catalog *ast.Catalog) *ast.ValidationResult {
	result := v.structural.ValidateCatalog(catalog)

	for i, variable := range catalog.Variables {
		if variable.InitialValue == "" {
			continue
		}

		path := fmt.Sprintf("variables[%d]", i)
		switch variable.Type {
		case ast.TypeChoice:
			if len(variable.Options) > 0 && !variable.HasOption(variable.InitialValue) {
				result.AddFieldError(path, "initial_value",
					fmt.Sprintf("initial value %q is not one of the options: %s", variable.InitialValue, strings.Join(variable.Options, ", ")))
			}
		case ast.TypeNumber, ast.TypeBoolean:
			if _, err := expression.ParseTyped(variable.InitialValue, variable.Type); err != nil {
				result.AddFieldError(path, "initial_value", fmt.Sprintf("invalid initial value: %v", err))
			}
		}
	}

	return result
}
