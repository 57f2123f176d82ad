package expression

import (
	"math"
	"testing"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTyped(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		dataType ast.DataType
		want     Value
		wantErr  bool
	}{
		{name: "integer", text: "42", dataType: ast.TypeNumber, want: Number(42)},
		{name: "decimal", text: "42.5", dataType: ast.TypeNumber, want: Number(42.5)},
		{name: "negative", text: "-3", dataType: ast.TypeNumber, want: Number(-3)},
		{name: "leading dot", text: ".5", dataType: ast.TypeNumber, want: Number(0.5)},
		{name: "exponent", text: "1e3", dataType: ast.TypeNumber, want: Number(1000)},
		{name: "word", text: "abc", dataType: ast.TypeNumber, wantErr: true},
		{name: "empty number", text: "", dataType: ast.TypeNumber, wantErr: true},
		{name: "NaN", text: "NaN", dataType: ast.TypeNumber, wantErr: true},
		{name: "infinity", text: "Inf", dataType: ast.TypeNumber, wantErr: true},
		{name: "hex", text: "0x10", dataType: ast.TypeNumber, wantErr: true},
		{name: "underscores", text: "1_000", dataType: ast.TypeNumber, wantErr: true},
		{name: "overflow", text: "1e400", dataType: ast.TypeNumber, wantErr: true},
		{name: "text identity", text: " any thing ", dataType: ast.TypeText, want: Text(" any thing ")},
		{name: "choice is text", text: "monthly", dataType: ast.TypeChoice, want: Text("monthly")},
		{name: "true", text: "true", dataType: ast.TypeBoolean, want: Bool(true)},
		{name: "false", text: "false", dataType: ast.TypeBoolean, want: Bool(false)},
		{name: "capitalized boolean", text: "True", dataType: ast.TypeBoolean, wantErr: true},
		{name: "maybe", text: "maybe", dataType: ast.TypeBoolean, wantErr: true},
		{name: "unknown type", text: "1", dataType: ast.DataType("date"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTyped(tt.text, tt.dataType)
			if tt.wantErr {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, tt.text, parseErr.Text)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLiteral(t *testing.T) {
	assert.Equal(t, Number(5), ParseLiteral("5"))
	assert.Equal(t, Number(-0.25), ParseLiteral("-0.25"))
	assert.Equal(t, Text("hello"), ParseLiteral("hello"))
	assert.Equal(t, Text(""), ParseLiteral(""))

	// Literals are never parsed as booleans.
	assert.Equal(t, Text("true"), ParseLiteral("true"))
	assert.Equal(t, Text("false"), ParseLiteral("false"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "42", Format(Number(42)))
	assert.Equal(t, "42.5", Format(Number(42.5)))
	assert.Equal(t, "-7", Format(Number(-7)))
	assert.Equal(t, "1000000000000000000000", Format(Number(1e21)))
	a, b := 0.1, 0.2
	assert.Equal(t, "0.30000000000000004", Format(Number(a+b)))
	assert.Equal(t, "+Inf", Format(Number(math.Inf(1))))
	assert.Equal(t, "true", Format(Bool(true)))
	assert.Equal(t, "false", Format(Bool(false)))
	assert.Equal(t, "as is ", Format(Text("as is ")))
}

func TestValueKind(t *testing.T) {
	assert.Equal(t, KindNumber, Number(1).Kind())
	assert.Equal(t, KindText, Text("a").Kind())
	assert.Equal(t, KindBoolean, Bool(true).Kind())
}
