package ui

import (
	"fmt"

	"github.com/pterm/pterm"
)

const bannerRule = "----------------------------"

// PrintBanner prints the autorel name and version between rules.
func PrintBanner(version string) {
	fmt.Fprintln(Output, pterm.Gray(bannerRule))
	fmt.Fprintf(Output, "%s %s\n",
		pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("⚙️ autorel"),
		pterm.Gray(version),
	)
	fmt.Fprintln(Output, pterm.Gray(bannerRule))
}
