package ast

import (
	"embed"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/stoewer/go-strcase"
)

//go:embed types.go
var typesGoFile embed.FS

// CustomReflector extends the default reflector with the catalog's naming
// conventions and the doc comments of types.go.
type CustomReflector struct {
	*jsonschema.Reflector
}

// NewCustomReflector creates a reflector that names keys and definitions in snake_case
func NewCustomReflector() *CustomReflector {
	r := &jsonschema.Reflector{
		KeyNamer: strcase.SnakeCase,
		Namer: func(t reflect.Type) string {
			return strcase.SnakeCase(t.Name())
		},
		ExpandedStruct: true,
	}

	return &CustomReflector{Reflector: r}
}

// NewSchema returns the JSON Schema of a catalog document
func NewSchema() ([]byte, error) {
	reflector := NewCustomReflector()
	err := reflector.extractGoComments(reflect.TypeOf(Catalog{}).PkgPath())
	if err != nil {
		return nil, err
	}

	fullSchema := reflector.Reflect(&Catalog{})
	fullSchema.Title = "Calculator catalog"
	if version, ok := fullSchema.Properties.Get("version"); ok {
		allowScalar(version)
	}
	return json.MarshalIndent(fullSchema, "", "  ")
}

// JSONSchemaExtend lets initial values be written as bare YAML scalars
func (Variable) JSONSchemaExtend(s *jsonschema.Schema) {
	if initial, ok := s.Properties.Get("initial_value"); ok {
		allowScalar(initial)
	}
}

// allowScalar widens a string property to any scalar. YAML documents often
// leave numbers and booleans unquoted; they are decoded as text.
func allowScalar(s *jsonschema.Schema) {
	s.Type = ""
	s.AnyOf = scalarSchemas()
}

func scalarSchemas() []*jsonschema.Schema {
	return []*jsonschema.Schema{
		{Type: "string"},
		{Type: "number"},
		{Type: "boolean"},
	}
}

// JSONSchema describes an expression as an array of tokens, each either a
// shorthand scalar or an object with exactly one of var, op or lit.
func (Expression) JSONSchema() *jsonschema.Schema {
	one := uint64(1)

	props := jsonschema.NewProperties()
	props.Set("var", &jsonschema.Schema{Type: "string", Description: "ID of the referenced variable"})
	props.Set("op", &jsonschema.Schema{Type: "string", Enum: operatorEnum()})
	props.Set("lit", &jsonschema.Schema{AnyOf: scalarSchemas(), Description: "Literal text; numbers are inferred, everything else is text"})

	return &jsonschema.Schema{
		Type:        "array",
		Description: "Tokens in infix order. A string starting with $ references a variable, an operator symbol is an operator and any other string is a literal.",
		Items: &jsonschema.Schema{
			AnyOf: append(scalarSchemas(), &jsonschema.Schema{
				Type:                 "object",
				Properties:           props,
				MinProperties:        &one,
				MaxProperties:        &one,
				AdditionalProperties: jsonschema.FalseSchema,
			}),
		},
	}
}

func operatorEnum() []any {
	enum := make([]any, len(Operators))
	for i, op := range Operators {
		enum[i] = op
	}
	return enum
}

func (r *CustomReflector) extractGoComments(pkg string) error {
	commentMap := make(map[string]string)
	fset := token.NewFileSet()
	typesFile, err := typesGoFile.ReadFile("types.go")
	if err != nil {
		return err
	}

	f, err := parser.ParseFile(fset, "types.go", typesFile, parser.ParseComments)
	if err != nil {
		return err
	}

	gtxt := ""
	typ := ""
	ast.Inspect(f, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.TypeSpec:
			typ = x.Name.String()
			if !ast.IsExported(typ) {
				typ = ""
			} else {
				txt := x.Doc.Text()
				if txt == "" && gtxt != "" {
					txt = gtxt
					gtxt = ""
				}

				commentMap[fmt.Sprintf("%s.%s", pkg, typ)] = strings.TrimSpace(txt)
			}
		case *ast.Field:
			txt := x.Doc.Text()
			if txt == "" {
				txt = x.Comment.Text()
			}
			if typ != "" && txt != "" {
				for _, n := range x.Names {
					if ast.IsExported(n.String()) {
						k := fmt.Sprintf("%s.%s.%s", pkg, typ, n)
						commentMap[k] = strings.TrimSpace(txt)
					}
				}
			}
		case *ast.GenDecl:
			gtxt = x.Doc.Text()
		}
		return true
	})

	r.CommentMap = commentMap

	return nil
}
