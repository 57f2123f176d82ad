package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Ergy12/caldeco/internal/ast"
)

// ParseError represents a parsing error with context
type ParseError struct {
	Message    string       `json:"message"`
	Position   ast.Position `json:"position"`
	Path       string       `json:"path,omitempty"`
	Context    string       `json:"context,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// Error implements the error interface
func (e *ParseError) Error() string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("Parse error at %s: %s", e.Position.String(), e.Message))

	if e.Suggestion != "" {
		result.WriteString(fmt.Sprintf("\nSuggestion: %s", e.Suggestion))
	}

	if e.Context != "" {
		result.WriteString(fmt.Sprintf("\n\nContext:\n%s", e.Context))
	}

	return result.String()
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// WrapYAMLError converts a yaml.v3 error into a ParseError pointing at the
// offending line
func WrapYAMLError(err error, source []byte, filename string) error {
	message := strings.TrimPrefix(err.Error(), "yaml: ")
	position := extractPositionFromMessage(message)
	position.File = filename

	return &ParseError{
		Message:    message,
		Position:   position,
		Context:    ast.ExtractContext(source, position, 2),
		Suggestion: generateSuggestion(message),
	}
}

// extractPositionFromMessage finds the first "line N" in a yaml error message
func extractPositionFromMessage(message string) ast.Position {
	if m := yamlLineRe.FindStringSubmatch(message); m != nil {
		if line, err := strconv.Atoi(m[1]); err == nil {
			return ast.Position{Line: line, Column: 1}
		}
	}
	return ast.Position{Line: 1, Column: 1}
}

func generateSuggestion(message string) string {
	switch {
	case strings.Contains(message, "found character that cannot start any token"):
		return "Check for tabs or special characters; YAML indentation must use spaces"
	case strings.Contains(message, "did not find expected key"):
		return "Check the indentation of the surrounding block"
	case strings.Contains(message, "not found in type"):
		return "Remove the unknown field or check its spelling"
	case strings.Contains(message, "missing properties"):
		return "Add the required field"
	case strings.Contains(message, "additionalProperties"):
		return "Remove the unknown field or check its spelling"
	case strings.Contains(message, "references undefined variable"):
		return "Declare the variable under variables or fix the reference"
	case strings.Contains(message, "unknown operator"):
		return fmt.Sprintf("Use one of: %s", strings.Join(ast.Operators, " "))
	case strings.Contains(message, "either expression or conditions"):
		return "A formula has either an expression or a list of conditions with an optional default"
	case strings.Contains(message, "unsupported version"):
		return fmt.Sprintf("Set version to a release matching %s, for example \"1.0\"", ast.SupportedVersions)
	default:
		return ""
	}
}

// MultiError represents multiple parsing or validation errors
type MultiError struct {
	Errors []error `json:"errors"`
}

// Error implements the error interface for MultiError
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Multiple errors (%d):\n", len(e.Errors)))

	for i, err := range e.Errors {
		result.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return result.String()
}

// Add adds an error to the MultiError
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns the MultiError as an error if there are errors, nil otherwise
func (e *MultiError) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
