package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// cellColorer decorates a padded table cell. Widths are measured before it
// runs so escape codes never break alignment.
type cellColorer func(row, col int, cell string) string

var (
	errorText   = color.New(color.FgRed).SprintFunc()
	noMatchText = color.New(color.FgYellow).SprintFunc()
	okText      = color.New(color.FgGreen).SprintFunc()
	headerText  = color.New(color.Bold).SprintFunc()
)

// printTable outputs data in a human-readable table format
func printTable(w io.Writer, headers []string, rows [][]string, colorer cellColorer) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	for i, header := range headers {
		fmt.Fprint(w, headerText(runewidth.FillRight(header, widths[i])), "  ")
	}
	fmt.Fprintln(w)

	for i := range headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i]), "  ")
	}
	fmt.Fprintln(w)

	for r, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				continue
			}
			padded := runewidth.FillRight(cell, widths[i])
			if colorer != nil {
				padded = colorer(r, i, padded)
			}
			fmt.Fprint(w, padded, "  ")
		}
		fmt.Fprintln(w)
	}
}
