// Package schema provides access to the caldeco catalog schema and the
// definitions of the formula language.
//
// The schema information is useful for:
//   - Building catalog editors with syntax validation
//   - Generating documentation for the formula language
//   - Validating catalogs produced by other tools
//
// Example usage:
//
//	info, err := schema.GetSchema()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var catalogSchema map[string]interface{}
//	json.Unmarshal(info.Schema, &catalogSchema)
//
//	for _, op := range info.Operators {
//		fmt.Printf("%s (precedence %d): %s\n", op.Symbol, op.Precedence, op.Description)
//	}
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/Ergy12/caldeco/internal/expression"
)

// SchemaOutput represents the complete schema information for caldeco catalogs.
type SchemaOutput struct {
	// Schema contains the JSON Schema definition for catalog files. It can be
	// used to validate catalog YAML/JSON documents and to drive editor
	// autocompletion.
	Schema json.RawMessage `json:"schema"`
	// Operators lists every operator a formula token may use, in precedence
	// order from tightest to loosest.
	Operators []expression.OperatorDef `json:"operators"`
	// Types lists the data types a variable may declare.
	Types []ast.DataType `json:"types"`
}

// GetSchema returns the catalog JSON schema together with the operator and
// type definitions of the formula language.
//
// Returns:
//   - *SchemaOutput: The schema and language definitions
//   - error: An error when the JSON schema cannot be generated
func GetSchema() (*SchemaOutput, error) {
	schemaBytes, err := ast.NewSchema()
	if err != nil {
		return nil, fmt.Errorf("error generating schema: %w", err)
	}

	return &SchemaOutput{
		Schema:    json.RawMessage(schemaBytes),
		Operators: expression.OperatorDefs,
		Types:     []ast.DataType{ast.TypeNumber, ast.TypeText, ast.TypeBoolean, ast.TypeChoice},
	}, nil
}
