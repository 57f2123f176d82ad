package expression

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Ergy12/caldeco/internal/ast"
)

// Value is a runtime value produced while evaluating an expression. It is a
// closed union of NumberValue, TextValue and BoolValue; every operator site
// switches over all three.
type Value interface {
	Kind() Kind
	String() string
	isValue()
}

// Kind names the runtime kind of a Value
type Kind string

const (
	KindNumber  Kind = "number"
	KindText    Kind = "text"
	KindBoolean Kind = "boolean"
)

type NumberValue struct {
	Val float64
}

type TextValue struct {
	Val string
}

type BoolValue struct {
	Val bool
}

func (NumberValue) isValue() {}
func (TextValue) isValue()   {}
func (BoolValue) isValue()   {}

func (NumberValue) Kind() Kind { return KindNumber }
func (TextValue) Kind() Kind   { return KindText }
func (BoolValue) Kind() Kind   { return KindBoolean }

func (v NumberValue) String() string { return strconv.FormatFloat(v.Val, 'f', -1, 64) }
func (v TextValue) String() string   { return v.Val }
func (v BoolValue) String() string   { return strconv.FormatBool(v.Val) }

// Number returns a NumberValue
func Number(f float64) Value { return NumberValue{Val: f} }

// Text returns a TextValue
func Text(s string) Value { return TextValue{Val: s} }

// Bool returns a BoolValue
func Bool(b bool) Value { return BoolValue{Val: b} }

// Format renders a value in its display form. Numbers use the shortest
// decimal representation without an exponent, and whole numbers carry no
// fraction: 42 renders as "42", not "42.0".
func Format(v Value) string {
	switch val := v.(type) {
	case NumberValue:
		return val.String()
	case TextValue:
		return val.Val
	case BoolValue:
		return val.String()
	}
	panic(fmt.Sprintf("unexpected value type %T", v))
}

// ParseError reports text that cannot be read as the requested type
type ParseError struct {
	Text string
	Type ast.DataType
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as %s", e.Text, e.Type)
}

// decimalRe accepts plain decimal numerals with an optional exponent.
// strconv.ParseFloat alone would also accept "Inf", "NaN", hex floats and
// underscores.
var decimalRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses a decimal numeral into a float64
func ParseNumber(text string) (float64, bool) {
	if !decimalRe.MatchString(text) {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseTyped interprets text according to a declared variable type. Choice
// values are text; booleans must be exactly "true" or "false".
func ParseTyped(text string, dataType ast.DataType) (Value, error) {
	switch dataType {
	case ast.TypeNumber:
		f, ok := ParseNumber(text)
		if !ok {
			return nil, &ParseError{Text: text, Type: dataType}
		}
		return NumberValue{Val: f}, nil
	case ast.TypeText, ast.TypeChoice:
		return TextValue{Val: text}, nil
	case ast.TypeBoolean:
		switch text {
		case "true":
			return BoolValue{Val: true}, nil
		case "false":
			return BoolValue{Val: false}, nil
		}
		return nil, &ParseError{Text: text, Type: dataType}
	default:
		return nil, &ParseError{Text: text, Type: dataType}
	}
}

// ParseLiteral interprets the text of a literal token: a number if it is a
// decimal numeral, text otherwise. Literals are never read as booleans.
func ParseLiteral(text string) Value {
	if f, ok := ParseNumber(text); ok {
		return NumberValue{Val: f}
	}
	return TextValue{Val: text}
}
