package expression

import (
	"fmt"

	"github.com/Ergy12/caldeco/internal/ast"
)

// Environment is the read-only snapshot an expression is evaluated against:
// the declared variables and the raw text entered for each of them.
type Environment struct {
	variables map[string]*ast.Variable
	inputs    map[string]string
}

// NewEnvironment indexes the variables by ID. When IDs repeat, the first
// declaration wins. Neither argument is modified.
func NewEnvironment(variables []ast.Variable, inputs map[string]string) *Environment {
	index := make(map[string]*ast.Variable, len(variables))
	for i := range variables {
		if _, ok := index[variables[i].ID]; !ok {
			index[variables[i].ID] = &variables[i]
		}
	}
	return &Environment{variables: index, inputs: inputs}
}

// Lookup resolves a variable reference to its typed value
func (env *Environment) Lookup(id string) (Value, error) {
	variable, ok := env.variables[id]
	if !ok {
		return nil, newError(ErrUndefinedVariable, "undefined variable: %s", id)
	}

	raw, ok := env.inputs[id]
	if !ok {
		return nil, newError(ErrMissingInputValue, "no value for variable: %s", variable.Name)
	}

	val, err := ParseTyped(raw, variable.Type)
	if err != nil {
		return nil, &EvalError{
			Kind:    ErrTypeCoercion,
			Message: fmt.Sprintf("cannot parse value '%s' for variable %s as %s", raw, variable.Name, variable.Type),
			Err:     err,
		}
	}
	return val, nil
}

// Evaluator executes expressions against an Environment. It keeps no state
// between calls and is safe for concurrent use.
type Evaluator struct {
	env *Environment
}

// NewEvaluator creates an evaluator bound to env
func NewEvaluator(env *Environment) *Evaluator {
	return &Evaluator{env: env}
}

// Evaluate compiles an infix expression and evaluates it
func (e *Evaluator) Evaluate(infix *ast.Expression) (Value, error) {
	return e.EvaluatePostfix(ToPostfix(infix))
}

// EvaluatePostfix runs a postfix token sequence on a value stack. Exactly one
// value must remain once every token has been consumed.
func (e *Evaluator) EvaluatePostfix(postfix *ast.Expression) (Value, error) {
	var stack []Value

	if postfix != nil {
		for _, tok := range postfix.Tokens {
			switch t := tok.(type) {
			case ast.Literal:
				stack = append(stack, ParseLiteral(t.Text))
			case ast.VariableRef:
				val, err := e.env.Lookup(t.VariableID)
				if err != nil {
					return nil, err
				}
				stack = append(stack, val)
			case ast.Operator:
				var err error
				stack, err = applyOperator(stack, t.Symbol)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	switch len(stack) {
	case 1:
		return stack[0], nil
	case 0:
		return nil, newError(ErrInvalidExpression, "invalid expression: empty stack at the end")
	default:
		return nil, newError(ErrInvalidExpression, "invalid expression: %d values left on the stack", len(stack))
	}
}

func applyOperator(stack []Value, symbol string) ([]Value, error) {
	if !ast.IsSupportedOperator(symbol) {
		return nil, newError(ErrUnknownOperator, "unknown operator: %s", symbol)
	}

	if symbol == ast.OpNot {
		if len(stack) < 1 {
			return nil, insufficientOperands(symbol)
		}
		operand := stack[len(stack)-1]
		b, ok := operand.(BoolValue)
		if !ok {
			return nil, newError(ErrTypeMismatch, "type error: operator NOT requires a boolean, got %s", operand.Kind())
		}
		stack[len(stack)-1] = BoolValue{Val: !b.Val}
		return stack, nil
	}

	if len(stack) < 2 {
		return nil, insufficientOperands(symbol)
	}
	right := stack[len(stack)-1]
	left := stack[len(stack)-2]
	stack = stack[:len(stack)-2]

	result, err := applyBinary(symbol, left, right)
	if err != nil {
		return nil, err
	}
	return append(stack, result), nil
}

func insufficientOperands(symbol string) error {
	return newError(ErrInsufficientOperands, "invalid expression: not enough operands for operator %s", symbol)
}

func applyBinary(symbol string, left, right Value) (Value, error) {
	switch symbol {
	case ast.OpAdd:
		switch l := left.(type) {
		case NumberValue:
			if r, ok := right.(NumberValue); ok {
				return NumberValue{Val: l.Val + r.Val}, nil
			}
		case TextValue:
			if r, ok := right.(TextValue); ok {
				return TextValue{Val: l.Val + r.Val}, nil
			}
		case BoolValue:
		}
		return nil, mismatch(symbol, "two numbers or two texts", left, right)
	case ast.OpSub, ast.OpMul, ast.OpDiv:
		l, lok := left.(NumberValue)
		r, rok := right.(NumberValue)
		if !lok || !rok {
			return nil, mismatch(symbol, "two numbers", left, right)
		}
		return arithmetic(symbol, l.Val, r.Val)
	case ast.OpEq, ast.OpNeq:
		equal, err := equals(left, right)
		if err != nil {
			return nil, err
		}
		if symbol == ast.OpNeq {
			equal = !equal
		}
		return BoolValue{Val: equal}, nil
	case ast.OpLt, ast.OpGt, ast.OpLte, ast.OpGte:
		l, lok := left.(NumberValue)
		r, rok := right.(NumberValue)
		if !lok || !rok {
			return nil, mismatch(symbol, "two numbers", left, right)
		}
		return BoolValue{Val: compare(symbol, l.Val, r.Val)}, nil
	case ast.OpAnd, ast.OpOr:
		l, lok := left.(BoolValue)
		r, rok := right.(BoolValue)
		if !lok || !rok {
			return nil, mismatch(symbol, "two booleans", left, right)
		}
		if symbol == ast.OpAnd {
			return BoolValue{Val: l.Val && r.Val}, nil
		}
		return BoolValue{Val: l.Val || r.Val}, nil
	default:
		return nil, newError(ErrUnknownOperator, "unknown operator: %s", symbol)
	}
}

func arithmetic(symbol string, l, r float64) (Value, error) {
	switch symbol {
	case ast.OpSub:
		return NumberValue{Val: l - r}, nil
	case ast.OpMul:
		return NumberValue{Val: l * r}, nil
	default:
		if r == 0 {
			return nil, newError(ErrDivisionByZero, "division by zero")
		}
		return NumberValue{Val: l / r}, nil
	}
}

func compare(symbol string, l, r float64) bool {
	switch symbol {
	case ast.OpLt:
		return l < r
	case ast.OpGt:
		return l > r
	case ast.OpLte:
		return l <= r
	default:
		return l >= r
	}
}

// equals compares two values of the same kind. A text operand is promoted
// when the other side is a number and the text is a decimal numeral.
func equals(left, right Value) (bool, error) {
	switch l := left.(type) {
	case NumberValue:
		switch r := right.(type) {
		case NumberValue:
			return l.Val == r.Val, nil
		case TextValue:
			if f, ok := ParseNumber(r.Val); ok {
				return l.Val == f, nil
			}
		case BoolValue:
		}
	case TextValue:
		switch r := right.(type) {
		case TextValue:
			return l.Val == r.Val, nil
		case NumberValue:
			if f, ok := ParseNumber(l.Val); ok {
				return f == r.Val, nil
			}
		case BoolValue:
		}
	case BoolValue:
		if r, ok := right.(BoolValue); ok {
			return l.Val == r.Val, nil
		}
	}
	return false, newError(ErrTypeMismatch, "comparison error: incompatible types %s (%s) and %s (%s)",
		left.Kind(), Format(left), right.Kind(), Format(right))
}

func mismatch(symbol, want string, left, right Value) error {
	return newError(ErrTypeMismatch, "type error: operator %s requires %s, got %s and %s",
		symbol, want, left.Kind(), right.Kind())
}
