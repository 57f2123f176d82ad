package expression

import "github.com/Ergy12/caldeco/internal/ast"

// OperatorDefs documents every supported operator, in precedence order
var OperatorDefs []OperatorDef

// OperatorDef describes an operator for tooling and the schema command
type OperatorDef struct {
	Symbol      string   `json:"symbol"`
	Precedence  int      `json:"precedence"`
	Arity       int      `json:"arity"`
	Operands    string   `json:"operands"`
	Result      Kind     `json:"result"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

func init() {
	OperatorDefs = []OperatorDef{
		{
			Symbol: ast.OpMul, Arity: 2, Operands: "number, number", Result: KindNumber,
			Description: "Multiplication.",
			Examples:    []string{"[$price, *, $quantity]"},
		},
		{
			Symbol: ast.OpDiv, Arity: 2, Operands: "number, number", Result: KindNumber,
			Description: "Division. A zero divisor is an error.",
			Examples:    []string{"[$total, /, 12]"},
		},
		{
			Symbol: ast.OpAdd, Arity: 2, Operands: "number, number | text, text", Result: KindNumber,
			Description: "Addition of two numbers or concatenation of two texts.",
			Examples:    []string{"[$base, +, $bonus]", "[$first, +, \" \", +, $last]"},
		},
		{
			Symbol: ast.OpSub, Arity: 2, Operands: "number, number", Result: KindNumber,
			Description: "Subtraction. Chains associate to the left.",
			Examples:    []string{"[$gross, -, $tax, -, $fees]"},
		},
		{
			Symbol: ast.OpEq, Arity: 2, Operands: "any two values of the same kind, or a number and a numeric text", Result: KindBoolean,
			Description: "Equality. Exact comparison, numbers have no tolerance.",
			Examples:    []string{"[$status, ==, active]", "[$count, ==, 5]"},
		},
		{
			Symbol: ast.OpNeq, Arity: 2, Operands: "any two values of the same kind, or a number and a numeric text", Result: KindBoolean,
			Description: "Inequality.",
			Examples:    []string{"[$status, !=, closed]"},
		},
		{
			Symbol: ast.OpLt, Arity: 2, Operands: "number, number", Result: KindBoolean,
			Description: "Less than.",
			Examples:    []string{"[$age, <, 18]"},
		},
		{
			Symbol: ast.OpGt, Arity: 2, Operands: "number, number", Result: KindBoolean,
			Description: "Greater than.",
			Examples:    []string{"[$income, >, 50000]"},
		},
		{
			Symbol: ast.OpLte, Arity: 2, Operands: "number, number", Result: KindBoolean,
			Description: "Less than or equal.",
			Examples:    []string{"[$hours, <=, 40]"},
		},
		{
			Symbol: ast.OpGte, Arity: 2, Operands: "number, number", Result: KindBoolean,
			Description: "Greater than or equal.",
			Examples:    []string{"[$score, >=, 90]"},
		},
		{
			Symbol: ast.OpAnd, Arity: 2, Operands: "boolean, boolean", Result: KindBoolean,
			Description: "Logical conjunction.",
			Examples:    []string{"[$age, >=, 18, AND, $member]"},
		},
		{
			Symbol: ast.OpOr, Arity: 2, Operands: "boolean, boolean", Result: KindBoolean,
			Description: "Logical disjunction. Binds loosest of the binary operators.",
			Examples:    []string{"[$vip, OR, $total, >, 100]"},
		},
		{
			Symbol: ast.OpNot, Arity: 1, Operands: "boolean", Result: KindBoolean,
			Description: "Logical negation written after its operand. It binds loosest of all, so it negates everything before it.",
			Examples:    []string{"[$subscribed, NOT]"},
		},
	}

	for i := range OperatorDefs {
		OperatorDefs[i].Precedence = Precedence(OperatorDefs[i].Symbol)
	}
}
