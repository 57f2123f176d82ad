package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExpression_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    []Token
		wantErr string
	}{
		{
			name: "shorthand",
			yaml: `[$price, "*", 2, AND, hello]`,
			want: []Token{Var("price"), Op(OpMul), Lit("2"), Op(OpAnd), Lit("hello")},
		},
		{
			name: "mappings",
			yaml: `[{var: price}, {op: "+"}, {lit: "$5"}]`,
			want: []Token{Var("price"), Op(OpAdd), Lit("$5")},
		},
		{
			name: "lone dollar is a literal",
			yaml: `["$"]`,
			want: []Token{Lit("$")},
		},
		{
			name: "lowercase keywords are literals",
			yaml: `[and, not]`,
			want: []Token{Lit("and"), Lit("not")},
		},
		{
			name: "unsupported operator in mapping form is kept",
			yaml: `[{op: "%"}]`,
			want: []Token{Op("%")},
		},
		{
			name: "empty",
			yaml: `[]`,
			want: []Token{},
		},
		{
			name:    "two keys",
			yaml:    `[{var: a, lit: b}]`,
			wantErr: "exactly one of var, op or lit",
		},
		{
			name:    "unknown key",
			yaml:    `[{value: a}]`,
			wantErr: "exactly one of var, op or lit",
		},
		{
			name:    "not a sequence",
			yaml:    `price`,
			wantErr: "expression must be a sequence of tokens",
		},
		{
			name:    "nested sequence",
			yaml:    `[[a]]`,
			wantErr: "token must be a scalar or a mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expr Expression
			err := yaml.Unmarshal([]byte(tt.yaml), &expr)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.Tokens)
		})
	}
}

func TestExpression_UnmarshalJSON(t *testing.T) {
	var expr Expression
	err := json.Unmarshal([]byte(`["$a", "+", 1.5, true, {"lit": 3}, {"op": "NOT"}, {"var": "b"}]`), &expr)
	require.NoError(t, err)
	assert.Equal(t, []Token{Var("a"), Op(OpAdd), Lit("1.5"), Lit("true"), Lit("3"), Op(OpNot), Var("b")}, expr.Tokens)

	err = json.Unmarshal([]byte(`[{"var": "a", "op": "+"}]`), &expr)
	assert.ErrorContains(t, err, "token 0")

	err = json.Unmarshal([]byte(`[{"name": "a"}]`), &expr)
	assert.ErrorContains(t, err, `unknown token key "name"`)

	err = json.Unmarshal([]byte(`"a + b"`), &expr)
	assert.ErrorContains(t, err, "expression must be an array of tokens")
}

func TestExpression_Marshal(t *testing.T) {
	expr := Expr(Var("a"), Op(OpGte), Lit("10"))

	data, err := json.Marshal(expr)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"var":"a"},{"op":">="},{"lit":"10"}]`, string(data))

	out, err := yaml.Marshal(expr)
	require.NoError(t, err)
	assert.Contains(t, string(out), "- var: a\n")

	var decoded Expression
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, expr.Tokens, decoded.Tokens)
}

func TestExpression_Helpers(t *testing.T) {
	expr := Expr(Var("a"), Op(OpAdd), Lit("x y"), Op(OpMul), Var("b"), Op(OpSub), Var("a"))

	assert.Equal(t, 7, expr.Len())
	assert.Equal(t, `$a + "x y" * $b - $a`, expr.String())
	assert.Equal(t, []string{"a", "b", "a"}, expr.VariableIDs())

	var nilExpr *Expression
	assert.Equal(t, 0, nilExpr.Len())
	assert.Equal(t, "", nilExpr.String())
	assert.Nil(t, nilExpr.VariableIDs())
}

func TestIsSupportedOperator(t *testing.T) {
	for _, op := range []string{"+", "-", "*", "/", "==", "!=", "<", ">", "<=", ">=", "AND", "OR", "NOT"} {
		assert.True(t, IsSupportedOperator(op), op)
	}
	for _, op := range []string{"%", "and", "&&", "=", ""} {
		assert.False(t, IsSupportedOperator(op), op)
	}
}
