package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Operator symbols understood by the evaluator. NOT is the only unary one.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpEq  = "=="
	OpNeq = "!="
	OpLt  = "<"
	OpGt  = ">"
	OpLte = "<="
	OpGte = ">="
	OpAnd = "AND"
	OpOr  = "OR"
	OpNot = "NOT"
)

// Operators lists every supported operator symbol
var Operators = []string{
	OpAdd, OpSub, OpMul, OpDiv,
	OpEq, OpNeq, OpLt, OpGt, OpLte, OpGte,
	OpAnd, OpOr, OpNot,
}

// IsSupportedOperator reports whether symbol is one of Operators
func IsSupportedOperator(symbol string) bool {
	for _, op := range Operators {
		if op == symbol {
			return true
		}
	}
	return false
}

// variablePrefix marks a variable reference in the scalar token shorthand.
const variablePrefix = "$"

// Token is one element of an expression. It is a closed union of
// VariableRef, Operator and Literal.
type Token interface {
	isToken()
	String() string
}

// VariableRef refers to a variable by ID; it is resolved at evaluation time
type VariableRef struct {
	VariableID string
}

// Operator applies one of the supported operator symbols
type Operator struct {
	Symbol string
}

// Literal is raw text whose type is inferred at evaluation time
type Literal struct {
	Text string
}

func (VariableRef) isToken() {}
func (Operator) isToken()    {}
func (Literal) isToken()     {}

func (t VariableRef) String() string { return variablePrefix + t.VariableID }
func (t Operator) String() string    { return t.Symbol }
func (t Literal) String() string     { return fmt.Sprintf("%q", t.Text) }

// Var returns a reference to the variable with the given ID
func Var(id string) VariableRef { return VariableRef{VariableID: id} }

// Op returns an operator token
func Op(symbol string) Operator { return Operator{Symbol: symbol} }

// Lit returns a literal token
func Lit(text string) Literal { return Literal{Text: text} }

// Expression is an ordered token sequence in infix order. There are no
// grouping tokens.
type Expression struct {
	Tokens []Token
}

// Expr builds an expression from tokens
func Expr(tokens ...Token) *Expression {
	return &Expression{Tokens: tokens}
}

// Len returns the number of tokens
func (e *Expression) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Tokens)
}

// String renders the tokens separated by spaces
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	parts := make([]string, len(e.Tokens))
	for i, tok := range e.Tokens {
		parts[i] = tok.String()
	}
	return strings.Join(parts, " ")
}

// VariableIDs returns the IDs of all referenced variables in order of appearance
func (e *Expression) VariableIDs() []string {
	if e == nil {
		return nil
	}
	var ids []string
	for _, tok := range e.Tokens {
		if ref, ok := tok.(VariableRef); ok {
			ids = append(ids, ref.VariableID)
		}
	}
	return ids
}

// tokenDoc is the mapping form of a token: exactly one key is set.
type tokenDoc struct {
	Var *string `yaml:"var,omitempty" json:"var,omitempty"`
	Op  *string `yaml:"op,omitempty" json:"op,omitempty"`
	Lit *string `yaml:"lit,omitempty" json:"lit,omitempty"`
}

func (d tokenDoc) token() (Token, error) {
	set := 0
	var tok Token
	if d.Var != nil {
		set++
		tok = VariableRef{VariableID: *d.Var}
	}
	if d.Op != nil {
		set++
		tok = Operator{Symbol: *d.Op}
	}
	if d.Lit != nil {
		set++
		tok = Literal{Text: *d.Lit}
	}
	if set != 1 {
		return nil, fmt.Errorf("token must set exactly one of var, op or lit")
	}
	return tok, nil
}

func docFromToken(tok Token) tokenDoc {
	switch t := tok.(type) {
	case VariableRef:
		return tokenDoc{Var: &t.VariableID}
	case Operator:
		return tokenDoc{Op: &t.Symbol}
	case Literal:
		return tokenDoc{Lit: &t.Text}
	}
	panic(fmt.Sprintf("unexpected token type %T", tok))
}

// tokenFromScalar decodes the shorthand form: "$id" is a variable reference,
// a supported operator symbol is an operator and anything else is a literal.
func tokenFromScalar(s string) Token {
	if strings.HasPrefix(s, variablePrefix) && len(s) > len(variablePrefix) {
		return VariableRef{VariableID: strings.TrimPrefix(s, variablePrefix)}
	}
	if IsSupportedOperator(s) {
		return Operator{Symbol: s}
	}
	return Literal{Text: s}
}

// UnmarshalYAML decodes a sequence of tokens in either mapping or scalar form
func (e *Expression) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: expression must be a sequence of tokens", value.Line)
	}

	tokens := make([]Token, 0, len(value.Content))
	for _, item := range value.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			tokens = append(tokens, tokenFromScalar(item.Value))
		case yaml.MappingNode:
			var doc tokenDoc
			if err := item.Decode(&doc); err != nil {
				return err
			}
			tok, err := doc.token()
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			tokens = append(tokens, tok)
		default:
			return fmt.Errorf("line %d: token must be a scalar or a mapping", item.Line)
		}
	}

	e.Tokens = tokens
	return nil
}

// MarshalYAML encodes the tokens in mapping form
func (e Expression) MarshalYAML() (interface{}, error) {
	docs := make([]tokenDoc, len(e.Tokens))
	for i, tok := range e.Tokens {
		docs[i] = docFromToken(tok)
	}
	return docs, nil
}

// UnmarshalJSON decodes an array whose items are shorthand scalars or token objects
func (e *Expression) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expression must be an array of tokens: %w", err)
	}

	tokens := make([]Token, 0, len(items))
	for i, raw := range items {
		tok, err := tokenFromJSON(raw)
		if err != nil {
			return fmt.Errorf("token %d: %w", i, err)
		}
		tokens = append(tokens, tok)
	}

	e.Tokens = tokens
	return nil
}

func tokenFromJSON(raw json.RawMessage) (Token, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var item interface{}
	if err := dec.Decode(&item); err != nil {
		return nil, err
	}

	switch v := item.(type) {
	case string:
		return tokenFromScalar(v), nil
	case json.Number, bool:
		return Literal{Text: fmt.Sprint(v)}, nil
	case map[string]interface{}:
		var doc tokenDoc
		for key, value := range v {
			text := fmt.Sprint(value)
			switch key {
			case "var":
				doc.Var = &text
			case "op":
				doc.Op = &text
			case "lit":
				doc.Lit = &text
			default:
				return nil, fmt.Errorf("unknown token key %q", key)
			}
		}
		return doc.token()
	default:
		return nil, fmt.Errorf("token must be a scalar or an object")
	}
}

// MarshalJSON encodes the tokens in object form
func (e Expression) MarshalJSON() ([]byte, error) {
	docs := make([]tokenDoc, len(e.Tokens))
	for i, tok := range e.Tokens {
		docs[i] = docFromToken(tok)
	}
	return json.Marshal(docs)
}
