package engine

import (
	"testing"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *ast.Catalog {
	return &ast.Catalog{
		Version: "1.0",
		Variables: []ast.Variable{
			{ID: "weight", Name: "Weight", Type: ast.TypeNumber, InitialValue: "2.5"},
			{ID: "zone", Name: "Zone", Type: ast.TypeChoice, InitialValue: "domestic", Options: []string{"domestic", "international"}},
			{ID: "express", Name: "Express", Type: ast.TypeBoolean, InitialValue: "false"},
			{ID: "rate", Name: "Rate per kg", Type: ast.TypeNumber, InitialValue: "4"},
		},
		InputFields: []ast.InputField{
			{ID: "weight-field", Label: "Parcel weight", VariableID: "weight"},
			{ID: "zone-field", Label: "Destination", VariableID: "zone"},
			{ID: "express-field", Label: "Express delivery", VariableID: "express"},
		},
		Formulas: []ast.Formula{
			{
				ID:         "base",
				Name:       "Base price",
				Expression: ast.Expr(ast.Var("weight"), ast.Op(ast.OpMul), ast.Var("rate")),
			},
			{
				ID:   "surcharge",
				Name: "Surcharge",
				Conditions: []ast.ConditionalBranch{
					{
						Condition: *ast.Expr(ast.Var("zone"), ast.Op(ast.OpEq), ast.Lit("international"), ast.Op(ast.OpAnd), ast.Var("express")),
						Result:    *ast.Expr(ast.Lit("25")),
					},
					{
						Condition: *ast.Expr(ast.Var("zone"), ast.Op(ast.OpEq), ast.Lit("international")),
						Result:    *ast.Expr(ast.Lit("15")),
					},
					{
						Condition: *ast.Expr(ast.Var("express")),
						Result:    *ast.Expr(ast.Lit("10")),
					},
				},
				Default: ast.Expr(ast.Lit("0")),
			},
			{
				ID:   "heavy",
				Name: "Heavy parcel",
				Conditions: []ast.ConditionalBranch{
					{
						Condition: *ast.Expr(ast.Var("weight"), ast.Op(ast.OpGt), ast.Lit("30")),
						Result:    *ast.Expr(ast.Lit("yes")),
					},
				},
			},
			{
				ID:         "per-item",
				Name:       "Price per item",
				Expression: ast.Expr(ast.Var("weight"), ast.Op(ast.OpDiv), ast.Lit("0")),
			},
		},
	}
}

func TestDefaultInputs(t *testing.T) {
	inputs := DefaultInputs(testCatalog())

	assert.Equal(t, map[string]string{
		"weight":  "2.5",
		"zone":    "domestic",
		"express": "false",
		"rate":    "4",
	}, inputs)
}

func TestDefaultInputs_FirstDeclarationWins(t *testing.T) {
	catalog := &ast.Catalog{
		Variables: []ast.Variable{
			{ID: "x", InitialValue: "1"},
			{ID: "x", InitialValue: "2"},
		},
	}

	assert.Equal(t, "1", DefaultInputs(catalog)["x"])
}

func TestValidateInputs(t *testing.T) {
	tests := []struct {
		name     string
		provided map[string]string
		valid    bool
		field    string
		message  string
		want     map[string]string
	}{
		{
			name:     "no inputs keeps defaults",
			provided: nil,
			valid:    true,
			want:     map[string]string{"weight": "2.5", "zone": "domestic", "express": "false", "rate": "4"},
		},
		{
			name:     "by variable id",
			provided: map[string]string{"weight": "10"},
			valid:    true,
			want:     map[string]string{"weight": "10", "zone": "domestic", "express": "false", "rate": "4"},
		},
		{
			name:     "by input field id",
			provided: map[string]string{"zone-field": "international", "express-field": "true"},
			valid:    true,
			want:     map[string]string{"weight": "2.5", "zone": "international", "express": "true", "rate": "4"},
		},
		{
			name:     "uncoercible values are accepted",
			provided: map[string]string{"weight": "heavy"},
			valid:    true,
			want:     map[string]string{"weight": "heavy", "zone": "domestic", "express": "false", "rate": "4"},
		},
		{
			name:     "unknown input",
			provided: map[string]string{"height": "3"},
			field:    "height",
			message:  "unknown input",
		},
		{
			name:     "unbound variable",
			provided: map[string]string{"rate": "5"},
			field:    "rate",
			message:  "variable rate is not bound to an input field",
		},
		{
			name:     "choice outside options",
			provided: map[string]string{"zone": "orbital"},
			field:    "zone",
			message:  "value must be one of: domestic, international",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInputs(testCatalog(), tt.provided)

			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Empty(t, result.Errors)
				assert.NoError(t, result.ToError())
				assert.Equal(t, tt.want, result.ProcessedInputs)
				return
			}

			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.Contains(t, result.Errors[0].Message, tt.message)
			assert.ErrorContains(t, result.ToError(), tt.message)
		})
	}
}

func TestValidateInputs_ErrorsAreSorted(t *testing.T) {
	result := ValidateInputs(testCatalog(), map[string]string{"b": "1", "a": "2"})

	require.Len(t, result.Errors, 2)
	assert.Equal(t, "a", result.Errors[0].Field)
	assert.Equal(t, "b", result.Errors[1].Field)
	assert.Equal(t, "invalid inputs: input 'a': unknown input: no variable or input field with this id; input 'b': unknown input: no variable or input field with this id", result.Error())
}

func TestValidateCatalog(t *testing.T) {
	assert.True(t, ValidateCatalog(testCatalog()).Valid)

	tests := []struct {
		name    string
		modify  func(c *ast.Catalog)
		message string
	}{
		{
			name:    "number initial value",
			modify:  func(c *ast.Catalog) { c.Variables[0].InitialValue = "two" },
			message: `invalid initial value: cannot parse "two" as number`,
		},
		{
			name:    "boolean initial value",
			modify:  func(c *ast.Catalog) { c.Variables[2].InitialValue = "True" },
			message: `invalid initial value: cannot parse "True" as boolean`,
		},
		{
			name:    "choice initial value",
			modify:  func(c *ast.Catalog) { c.Variables[1].InitialValue = "orbital" },
			message: `initial value "orbital" is not one of the options: domestic, international`,
		},
		{
			name:    "structural errors are kept",
			modify:  func(c *ast.Catalog) { c.Formulas[0].Name = "" },
			message: "name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := testCatalog()
			tt.modify(catalog)

			result := ValidateCatalog(catalog)
			require.False(t, result.Valid)
			assert.ErrorContains(t, result.ToError(), tt.message)
		})
	}
}

func TestValidateCatalog_BlankInitialValues(t *testing.T) {
	catalog := testCatalog()
	catalog.Variables[0].InitialValue = ""
	catalog.Variables[1].InitialValue = ""

	assert.True(t, ValidateCatalog(catalog).Valid)
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog("testdata/shipping.calc.yaml")
	require.NoError(t, err)

	assert.Equal(t, "shipping", catalog.Name())
	assert.Equal(t, []string{"base", "surcharge", "heavy", "per-item"}, catalog.ListFormulaIDs())
}

func TestLoadCatalog_ChecksInitialValues(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	_, err = p.ParseBytes([]byte(`version: "1.0"
variables:
  - {id: n, name: N, type: number, initial_value: "ten"}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid initial value")
}
