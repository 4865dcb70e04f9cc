// Package ui provides terminal output for autorel: status lines, headers,
// tables, spinners and confirmations.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
)

// Output is where status lines are written.
var Output io.Writer = os.Stdout

// Success prints a success message with green checkmark.
func Success(message string) {
	fmt.Fprintf(Output, "%s %s\n", SuccessSymbol, SuccessStyle.Sprint(message))
}

// Error prints an error message with red X.
func Error(message string) {
	fmt.Fprintf(Output, "%s %s\n", ErrorSymbol, ErrorStyle.Sprint(message))
}

// Warning prints a warning message with yellow symbol.
func Warning(message string) {
	fmt.Fprintf(Output, "%s %s\n", WarningSymbol, WarningStyle.Sprint(message))
}

// Info prints an info message with cyan arrow.
func Info(message string) {
	fmt.Fprintf(Output, "%s %s\n", InfoSymbol, InfoStyle.Sprint(message))
}

// Detail prints an indented key and value.
func Detail(key, value string) {
	fmt.Fprintf(Output, "  %s %s\n", pterm.Gray(key+":"), value)
}

// Header prints a styled section header.
func Header(message string) {
	fmt.Fprintf(Output, "%s\n", HeaderStyle.Sprint(message))
}

// Section prints a prominent section header with separator line.
func Section(message string) {
	separator := pterm.Gray("─────────────────────────────────────────────────")
	fmt.Fprintf(Output, "\n%s\n%s\n", separator, HeaderStyle.Sprint(message))
}

// Blank prints a blank line for spacing.
func Blank() {
	fmt.Fprintln(Output)
}
