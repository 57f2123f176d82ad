package expression

import (
	"github.com/Ergy12/caldeco/internal/ast"
)

// Precedence returns the binding strength of an operator symbol. Unknown
// symbols, NOT included, bind with 0.
func Precedence(symbol string) int {
	switch symbol {
	case ast.OpOr:
		return 1
	case ast.OpAnd:
		return 2
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		return 3
	case ast.OpAdd, ast.OpSub:
		return 4
	case ast.OpMul, ast.OpDiv:
		return 5
	default:
		return 0
	}
}

// ToPostfix reorders infix tokens into postfix order using the shunting-yard
// algorithm. Operators of equal precedence associate to the left. It never
// fails and performs no type checking.
func ToPostfix(infix *ast.Expression) *ast.Expression {
	output := make([]ast.Token, 0, infix.Len())
	var stack []ast.Operator

	if infix == nil {
		return &ast.Expression{Tokens: output}
	}

	for _, tok := range infix.Tokens {
		switch t := tok.(type) {
		case ast.VariableRef, ast.Literal:
			output = append(output, t)
		case ast.Operator:
			for len(stack) > 0 && Precedence(stack[len(stack)-1].Symbol) >= Precedence(t.Symbol) {
				output = append(output, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, t)
		}
	}

	for len(stack) > 0 {
		output = append(output, stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}

	return &ast.Expression{Tokens: output}
}
