package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"Id", "Value"}, [][]string{
		{"alpha", "1"},
		{"b", "22222"},
	}, func(row, col int, cell string) string {
		if row == 1 && col == 1 {
			return "[" + cell + "]"
		}
		return cell
	})

	lines := strings.Split(re.ReplaceAllString(buf.String(), ""), "\n")
	assert.Equal(t, "Id     Value  ", lines[0])
	assert.Equal(t, "-----  -----  ", lines[1])
	assert.Equal(t, "alpha  1      ", lines[2])
	assert.Equal(t, "b      [22222]  ", lines[3])
}

func TestPrintTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"Id"}, nil, nil)
	assert.Empty(t, buf.String())
}
