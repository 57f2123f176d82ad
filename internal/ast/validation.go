package ast

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SupportedVersions is the constraint a catalog's version must satisfy
const SupportedVersions = "^1.0"

// ValidationError represents a validation error
type ValidationError struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"message" yaml:"message"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	if ve.Path != "" {
		return fmt.Sprintf("%s: %s", ve.Path, ve.Message)
	}
	return ve.Message
}

// ValidationResult contains the results of catalog validation
type ValidationResult struct {
	Valid  bool               `json:"valid" yaml:"valid"`
	Errors []*ValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// AddError adds a validation error
func (vr *ValidationResult) AddError(path, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Path:    path,
		Message: message,
	})
}

// AddFieldError adds a validation error for a specific field
func (vr *ValidationResult) AddFieldError(path, field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Path:    path,
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ToError returns a combined error if there are validation errors
func (vr *ValidationResult) ToError() error {
	if !vr.HasErrors() {
		return nil
	}

	var messages []string
	for _, err := range vr.Errors {
		messages = append(messages, err.Error())
	}

	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// Validator checks the structure of a catalog: versions, identifiers,
// references between entities and the shape of every formula. It does not
// interpret values; value coercion belongs to the expression package.
type Validator struct {
	versions *semver.Constraints
}

// NewValidator creates a new catalog validator
func NewValidator() *Validator {
	constraints, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		panic(fmt.Sprintf("invalid version constraint %q: %v", SupportedVersions, err))
	}
	return &Validator{versions: constraints}
}

// ValidateCatalog performs structural validation of a catalog
func (v *Validator) ValidateCatalog(c *Catalog) *ValidationResult {
	result := &ValidationResult{Valid: true}

	v.validateVersion(c.Version, result)

	if c.Metadata != nil {
		v.validateMetadata(c.Metadata, "metadata", result)
	}

	v.validateVariables(c.Variables, "variables", result)
	v.validateInputFields(c, "input_fields", result)
	v.validateFormulas(c, "formulas", result)

	return result
}

func (v *Validator) validateVersion(version string, result *ValidationResult) {
	if version == "" {
		result.AddFieldError("", "version", "version is required")
		return
	}

	ver, err := semver.NewVersion(version)
	if err != nil {
		result.AddFieldError("", "version", fmt.Sprintf("invalid version %q: %v", version, err))
		return
	}

	if !v.versions.Check(ver) {
		result.AddFieldError("", "version", fmt.Sprintf("unsupported version: %s (supported: %s)", version, SupportedVersions))
	}
}

func (v *Validator) validateMetadata(metadata *CatalogMetadata, path string, result *ValidationResult) {
	if metadata.Name == "" {
		result.AddFieldError(path, "name", "name is required")
		return
	}

	if !isValidKebabCase(metadata.Name) {
		result.AddFieldError(path, "name", "name must be in kebab-case format")
	}
}

func (v *Validator) validateVariables(variables []Variable, path string, result *ValidationResult) {
	seen := make(map[string]bool)

	for i, variable := range variables {
		varPath := fmt.Sprintf("%s[%d]", path, i)

		if !isValidID(variable.ID) {
			result.AddFieldError(varPath, "id", fmt.Sprintf("invalid id %q: ids must be non-empty and contain no whitespace or '$'", variable.ID))
		} else if seen[variable.ID] {
			result.AddFieldError(varPath, "id", fmt.Sprintf("duplicate variable id: %s", variable.ID))
		}
		seen[variable.ID] = true

		if variable.Name == "" {
			result.AddFieldError(varPath, "name", "name is required")
		}

		switch variable.Type {
		case TypeNumber, TypeText, TypeBoolean:
			if len(variable.Options) > 0 {
				result.AddFieldError(varPath, "options", fmt.Sprintf("options are only allowed for choice variables, not %s", variable.Type))
			}
		case TypeChoice:
			if len(variable.Options) == 0 {
				result.AddFieldError(varPath, "options", "choice variables require at least one option")
			}
		case "":
			result.AddFieldError(varPath, "type", "type is required")
		default:
			result.AddFieldError(varPath, "type", fmt.Sprintf("unknown type: %s", variable.Type))
		}
	}
}

func (v *Validator) validateInputFields(c *Catalog, path string, result *ValidationResult) {
	seen := make(map[string]bool)
	bound := make(map[string]string)

	for i, field := range c.InputFields {
		fieldPath := fmt.Sprintf("%s[%d]", path, i)

		if field.ID == "" {
			result.AddFieldError(fieldPath, "id", "id is required")
		} else if seen[field.ID] {
			result.AddFieldError(fieldPath, "id", fmt.Sprintf("duplicate input field id: %s", field.ID))
		}
		seen[field.ID] = true

		if field.Label == "" {
			result.AddFieldError(fieldPath, "label", "label is required")
		}

		if field.VariableID == "" {
			result.AddFieldError(fieldPath, "variable_id", "variable_id is required")
			continue
		}

		if _, ok := c.GetVariable(field.VariableID); !ok {
			result.AddFieldError(fieldPath, "variable_id", fmt.Sprintf("references undefined variable: %s", field.VariableID))
		}

		if other, ok := bound[field.VariableID]; ok {
			result.AddFieldError(fieldPath, "variable_id", fmt.Sprintf("variable %s is already bound to input field %s", field.VariableID, other))
		} else {
			bound[field.VariableID] = field.ID
		}
	}
}

func (v *Validator) validateFormulas(c *Catalog, path string, result *ValidationResult) {
	seen := make(map[string]bool)

	for i := range c.Formulas {
		formula := &c.Formulas[i]
		formulaPath := fmt.Sprintf("%s[%d]", path, i)

		if formula.ID == "" {
			result.AddFieldError(formulaPath, "id", "id is required")
		} else if seen[formula.ID] {
			result.AddFieldError(formulaPath, "id", fmt.Sprintf("duplicate formula id: %s", formula.ID))
		}
		seen[formula.ID] = true

		if formula.Name == "" {
			result.AddFieldError(formulaPath, "name", "name is required")
		}

		v.validateFormula(c, formula, formulaPath, result)
	}
}

// validateFormula enforces that exactly one of expression and conditions is set
func (v *Validator) validateFormula(c *Catalog, formula *Formula, path string, result *ValidationResult) {
	switch {
	case formula.IsSimple() && formula.IsConditional():
		result.AddError(path, "formula must set either expression or conditions, not both")
	case !formula.IsSimple() && !formula.IsConditional():
		result.AddError(path, "formula must set either expression or conditions")
	case formula.IsSimple():
		if formula.Default != nil {
			result.AddFieldError(path, "default", "default is only allowed together with conditions")
		}
		v.validateExpression(c, formula.Expression, path+".expression", result)
	default:
		for i := range formula.Conditions {
			branchPath := fmt.Sprintf("%s.conditions[%d]", path, i)
			v.validateExpression(c, &formula.Conditions[i].Condition, branchPath+".when", result)
			v.validateExpression(c, &formula.Conditions[i].Result, branchPath+".then", result)
		}
		if formula.Default != nil {
			v.validateExpression(c, formula.Default, path+".default", result)
		}
	}
}

func (v *Validator) validateExpression(c *Catalog, expr *Expression, path string, result *ValidationResult) {
	if expr.Len() == 0 {
		result.AddError(path, "expression must contain at least one token")
		return
	}

	for i, tok := range expr.Tokens {
		switch t := tok.(type) {
		case VariableRef:
			if _, ok := c.GetVariable(t.VariableID); !ok {
				result.AddError(fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("references undefined variable: %s", t.VariableID))
			}
		case Operator:
			if !IsSupportedOperator(t.Symbol) {
				result.AddError(fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("unknown operator: %s (supported: %s)", t.Symbol, strings.Join(Operators, " ")))
			}
		case Literal:
		}
	}
}

var (
	kebabCaseRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	idRe        = regexp.MustCompile(`^[^\s$]+$`)
)

func isValidKebabCase(s string) bool {
	return kebabCaseRe.MatchString(s)
}

func isValidID(s string) bool {
	return idRe.MatchString(s)
}
