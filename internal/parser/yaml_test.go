package parser

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewYAMLParser(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)
	assert.NotNil(t, parser)
	assert.NotNil(t, parser.schema)
	assert.NotNil(t, parser.validator)
	assert.True(t, parser.strict)
}

func TestNewYAMLParser_WithOptions(t *testing.T) {
	parser, err := NewYAMLParser(WithStrict(false))
	require.NoError(t, err)
	assert.False(t, parser.strict)
	assert.Nil(t, parser.schema)
}

func TestYAMLParser_ParseFile_Payroll(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	absPath, err := filepath.Abs("testdata/valid/payroll.calc.yaml")
	require.NoError(t, err)

	catalog, err := parser.ParseFile(absPath)
	require.NoError(t, err)

	assert.Equal(t, "1.0", catalog.Version)
	assert.Equal(t, "payroll", catalog.Name())
	assert.Equal(t, absPath, catalog.SourceFile)
	assert.Equal(t, absPath, catalog.Position.File)
	assert.Len(t, catalog.Variables, 5)
	assert.Len(t, catalog.InputFields, 4)
	assert.Equal(t, []string{"gross", "overtime", "band", "dues", "status"}, catalog.ListFormulaIDs())

	hours, ok := catalog.GetVariable("hours")
	require.True(t, ok)
	assert.Equal(t, ast.TypeNumber, hours.Type)
	assert.Equal(t, "40", hours.InitialValue)

	employment, ok := catalog.GetVariable("employment")
	require.True(t, ok)
	assert.Equal(t, ast.TypeChoice, employment.Type)
	assert.Equal(t, []string{"full-time", "part-time", "contractor"}, employment.Options)

	gross, ok := catalog.GetFormula("gross")
	require.True(t, ok)
	assert.Equal(t, []ast.Token{ast.Var("hours"), ast.Op("*"), ast.Var("rate")}, gross.Expression.Tokens)

	band, ok := catalog.GetFormula("band")
	require.True(t, ok)
	require.Len(t, band.Conditions, 2)
	assert.Equal(t, []ast.Token{ast.Var("hours"), ast.Op("*"), ast.Var("rate"), ast.Op(">"), ast.Lit("1500")}, band.Conditions[0].Condition.Tokens)
	assert.Equal(t, []ast.Token{ast.Lit("high")}, band.Conditions[0].Result.Tokens)
	assert.Equal(t, []ast.Token{ast.Lit("low")}, band.Default.Tokens)

	status, ok := catalog.GetFormula("status")
	require.True(t, ok)
	assert.Equal(t, []ast.Token{ast.Var("employment"), ast.Op("+"), ast.Lit(" / "), ast.Op("+"), ast.Var("employment")}, status.Expression.Tokens)
}

func TestYAMLParser_ParseFile_AssignsIDs(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	catalog, err := parser.ParseFile("testdata/valid/minimal.calc.yml")
	require.NoError(t, err)
	require.Len(t, catalog.Formulas, 1)

	_, err = uuid.Parse(catalog.Formulas[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, "Answer", catalog.Formulas[0].Name)
}

func TestYAMLParser_ParseFile_InvalidExtension(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	_, err = parser.ParseFile("test.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file extension")
}

func TestYAMLParser_ParseFile_FileNotFound(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	_, err = parser.ParseFile("nonexistent.calc.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestYAMLParser_ParseFile_UndefinedVariable(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	_, err = parser.ParseFile("testdata/invalid/undefined_variable.calc.yaml")
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "formulas[0].expression[2]", parseErr.Path)
	assert.Equal(t, 13, parseErr.Position.Line)
	assert.Equal(t, "testdata/invalid/undefined_variable.calc.yaml", parseErr.Position.File)
	assert.Contains(t, parseErr.Message, "references undefined variable: missing")
	assert.Contains(t, parseErr.Context, "$missing")
	assert.NotEmpty(t, parseErr.Suggestion)
}

func TestYAMLParser_ParseFile_SyntaxError(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	_, err = parser.ParseFile("testdata/invalid/syntax.calc.yaml")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "Parse error at testdata/invalid/syntax.calc.yaml:")
}

func TestYAMLParser_ParseBytes(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	testCases := []struct {
		name        string
		yaml        string
		expectError string
	}{
		{
			name:        "empty document",
			yaml:        "   \n",
			expectError: "empty catalog file",
		},
		{
			name: "unknown field",
			yaml: `version: "1.0"
steps: []
`,
			expectError: "steps",
		},
		{
			name: "unsupported version",
			yaml: `version: "2.0"
`,
			expectError: "unsupported version: 2.0",
		},
		{
			name: "duplicate variable",
			yaml: `version: "1.0"
variables:
  - {id: a, name: A, type: number, initial_value: "1"}
  - {id: a, name: B, type: text, initial_value: b}
`,
			expectError: "duplicate variable id: a",
		},
		{
			name: "formula with expression and conditions",
			yaml: `version: "1.0"
formulas:
  - id: f
    name: F
    expression: ["1"]
    conditions:
      - when: ["1", "==", "1"]
        then: ["2"]
`,
			expectError: "either expression or conditions, not both",
		},
		{
			name: "choice without options",
			yaml: `version: "1.0"
variables:
  - {id: plan, name: Plan, type: choice, initial_value: basic}
`,
			expectError: "choice variables require at least one option",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parser.ParseBytes([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectError)
		})
	}
}

func TestYAMLParser_ParseBytes_TokenForms(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	catalog, err := parser.ParseBytes([]byte(`version: "1.0"
variables:
  - {id: a, name: A, type: number, initial_value: 2}
formulas:
  - id: f
    name: F
    expression: [$a, "+", 5, {lit: "$x"}, {op: "*"}, {var: a}, true]
`))
	require.NoError(t, err)

	f, ok := catalog.GetFormula("f")
	require.True(t, ok)
	assert.Equal(t, []ast.Token{
		ast.Var("a"), ast.Op("+"), ast.Lit("5"), ast.Lit("$x"), ast.Op("*"), ast.Var("a"), ast.Lit("true"),
	}, f.Expression.Tokens)
}

func TestYAMLParser_NonStrictIgnoresUnknownFields(t *testing.T) {
	parser, err := NewYAMLParser(WithStrict(false))
	require.NoError(t, err)

	catalog, err := parser.ParseBytes([]byte(`version: "1.0"
ui:
  theme: dark
`))
	require.NoError(t, err)
	assert.Equal(t, "1.0", catalog.Version)
}

func TestYAMLParser_UnknownOperator(t *testing.T) {
	doc := []byte(`version: "1.0"
formulas:
  - id: f
    name: F
    expression: ["1", {op: "%"}, "2"]
`)

	strict, err := NewYAMLParser()
	require.NoError(t, err)
	_, err = strict.ParseBytes(doc)
	require.Error(t, err)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.True(t, strings.HasPrefix(parseErr.Path, "/formulas/0/expression/1"))

	lenient, err := NewYAMLParser(WithStrict(false))
	require.NoError(t, err)
	_, err = lenient.ParseBytes(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operator: %")
}

func TestYAMLParser_StrictNumericCatalog(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	catalog, err := parser.ParseBytes([]byte(`version: "1.0"
variables:
  - {id: qty, name: Quantity, type: number, initial_value: 3}
  - {id: price, name: Price, type: number, initial_value: 2.5}
formulas:
  - id: total
    name: Total
    expression: [{var: qty}, {op: "*"}, {var: price}, {op: "+"}, {lit: 10}]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"total"}, catalog.ListFormulaIDs())
}

func TestYAMLParser_ParseReader(t *testing.T) {
	parser, err := NewYAMLParser()
	require.NoError(t, err)

	catalog, err := parser.ParseReader(strings.NewReader(`version: "1.0"
formulas:
  - {id: answer, name: Answer, expression: ["42"]}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"answer"}, catalog.ListFormulaIDs())
}

func TestIsCatalogFile(t *testing.T) {
	assert.True(t, IsCatalogFile("payroll.calc.yaml"))
	assert.True(t, IsCatalogFile("dir/payroll.calc.yml"))
	assert.False(t, IsCatalogFile("payroll.yaml"))
	assert.False(t, IsCatalogFile("payroll.calc.json"))
	assert.Equal(t, []string{".calc.yaml", ".calc.yml"}, GetSupportedExtensions())
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, []string{"formulas", "0", "conditions", "1", "when"}, pathSegments("formulas[0].conditions[1].when"))
	assert.Nil(t, pathSegments(""))
	assert.Equal(t, []string{"variables", "2", "id"}, pointerSegments("/variables/2/id"))
	assert.Equal(t, []string{"a/b"}, pointerSegments("/a~1b"))
	assert.Nil(t, pointerSegments(""))
}
