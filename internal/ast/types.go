package ast

import (
	"fmt"
	"strings"
)

// Position represents a position in a source file
type Position struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
	File   string `json:"file,omitempty"`
}

// String returns a human-readable representation of the position
func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ExtractContext extracts contextual lines around a position for error reporting
func ExtractContext(source []byte, position Position, contextLines int) string {
	lines := strings.Split(string(source), "\n")

	if position.Line <= 0 || position.Line > len(lines) {
		return ""
	}

	start := max(0, position.Line-contextLines-1)
	end := min(len(lines), position.Line+contextLines)

	var context strings.Builder
	for i := start; i < end; i++ {
		lineNum := i + 1
		prefix := "   "
		if lineNum == position.Line {
			prefix = ">> "
		}

		context.WriteString(fmt.Sprintf("%s%4d | %s\n", prefix, lineNum, lines[i]))

		if lineNum == position.Line && position.Column > 0 {
			pointer := strings.Repeat(" ", 8+min(position.Column-1, len(lines[i]))) + "^"
			context.WriteString(pointer + "\n")
		}
	}

	return context.String()
}

// Catalog is the root of a calculator document: the variables a user has
// declared, the input fields bound to them and the formulas computed from
// them. A Catalog is treated as an immutable snapshot once loaded.
type Catalog struct {
	// Version of the catalog document format.
	Version string `yaml:"version" json:"version" jsonschema:"required,example=1.0"`
	// Metadata describes the catalog.
	Metadata *CatalogMetadata `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	// Variables are the named, typed values formulas refer to.
	Variables []Variable `yaml:"variables,omitempty" json:"variables,omitempty"`
	// InputFields are the user-facing fields bound to variables.
	InputFields []InputField `yaml:"input_fields,omitempty" json:"input_fields,omitempty"`
	// Formulas are the computed results shown to the user.
	Formulas []Formula `yaml:"formulas,omitempty" json:"formulas,omitempty"`

	SourceFile string   `yaml:"-" json:"-"`
	Position   Position `yaml:"-" json:"-"`
}

// CatalogMetadata contains descriptive information about the catalog
type CatalogMetadata struct {
	// Name of the catalog in kebab-case.
	Name string `yaml:"name" json:"name" jsonschema:"required"`
	// Description of what the catalog calculates.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Author      string `yaml:"author,omitempty" json:"author,omitempty"`
}

// DataType is the declared type of a variable.
type DataType string

const (
	TypeNumber  DataType = "number"
	TypeText    DataType = "text"
	TypeBoolean DataType = "boolean"
	TypeChoice  DataType = "choice"
)

// ParseDataType converts a type name into a DataType. Names are matched
// case-insensitively.
func ParseDataType(s string) (DataType, error) {
	switch DataType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeNumber:
		return TypeNumber, nil
	case TypeText:
		return TypeText, nil
	case TypeBoolean:
		return TypeBoolean, nil
	case TypeChoice:
		return TypeChoice, nil
	default:
		return "", fmt.Errorf("unknown data type %q (expected number, text, boolean or choice)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for YAML and JSON decoding
func (t *DataType) UnmarshalText(text []byte) error {
	dt, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*t = dt
	return nil
}

// Variable is a named value formulas can reference by ID
type Variable struct {
	// ID is the unique, stable identifier expressions refer to. A random
	// ID is assigned when it is left blank.
	ID string `yaml:"id" json:"id,omitempty"`
	// Name is the display name.
	Name        string `yaml:"name" json:"name" jsonschema:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Type is the declared type used to interpret input text.
	Type DataType `yaml:"type" json:"type" jsonschema:"required,enum=number,enum=text,enum=boolean,enum=choice"`
	// InitialValue is the default input text for the variable.
	InitialValue string `yaml:"initial_value" json:"initial_value"`
	// Options lists the allowed values of a choice variable.
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// InputField is a user-facing field that supplies the value of a variable
type InputField struct {
	ID          string `yaml:"id" json:"id,omitempty"`
	Label       string `yaml:"label" json:"label" jsonschema:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// VariableID is the variable this field provides input for.
	VariableID string `yaml:"variable_id" json:"variable_id" jsonschema:"required"`
}

// Formula computes a display value either from a single expression or from
// an ordered list of conditional branches with an optional default.
type Formula struct {
	ID   string `yaml:"id" json:"id,omitempty"`
	Name string `yaml:"name" json:"name" jsonschema:"required"`
	// Expression is set for a simple formula.
	Expression *Expression `yaml:"expression,omitempty" json:"expression,omitempty"`
	// Conditions is set for a conditional formula; the first branch whose
	// condition holds decides the result.
	Conditions []ConditionalBranch `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	// Default is used by a conditional formula when no branch matches.
	Default *Expression `yaml:"default,omitempty" json:"default,omitempty"`
}

// ConditionalBranch pairs a boolean condition with the expression used when it holds
type ConditionalBranch struct {
	Condition Expression `yaml:"when" json:"when" jsonschema:"required"`
	Result    Expression `yaml:"then" json:"then" jsonschema:"required"`
}
