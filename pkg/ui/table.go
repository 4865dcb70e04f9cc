package ui

import (
	"github.com/pterm/pterm"
)

// Table creates and prints a formatted table with headers and rows.
// The headers are displayed in bold at the top of the table.
func Table(headers []string, rows [][]string) {
	data := [][]string{headers}
	data = append(data, rows...)
	_ = pterm.DefaultTable.WithHasHeader().WithWriter(Output).WithData(data).Render()
}
